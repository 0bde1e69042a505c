package httpapi

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// yesNoBool accepts a JSON boolean or the literal strings "Yes"/"No", kept
// for backward compatibility with older clients. Anything else is rejected.
type yesNoBool bool

func (b *yesNoBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case bool:
		*b = yesNoBool(value)
		return nil
	case string:
		switch value {
		case "Yes":
			*b = true
			return nil
		case "No":
			*b = false
			return nil
		}
	}
	return fmt.Errorf("completed must be a boolean or \"Yes\"/\"No\"")
}

// dateOrTime accepts either a plain calendar date ("2006-01-02") or a full
// RFC 3339 timestamp.
type dateOrTime struct {
	time.Time
}

func (d *dateOrTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date: %q", s)
	}
	d.Time = t
	return nil
}

type taskRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Priority    *models.Priority `json:"priority"`
	DueDate     *dateOrTime      `json:"dueDate"`
	Completed   *yesNoBool       `json:"completed"`
}

func (t taskRequest) fields() services.TaskFields {
	fields := services.TaskFields{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
	}
	if t.DueDate != nil {
		fields.DueDate = &t.DueDate.Time
	}
	if t.Completed != nil {
		completed := bool(*t.Completed)
		fields.Completed = &completed
	}
	return fields
}

type identityPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toIdentityPayload(u *models.User) identityPayload {
	return identityPayload{ID: u.ID, Name: u.Name, Email: u.Email}
}

type taskPayload struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
	DueDate     *time.Time      `json:"dueDate"`
	Completed   bool            `json:"completed"`
	Owner       string          `json:"owner"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func toTaskPayload(t *models.Task) taskPayload {
	return taskPayload{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Completed:   t.Completed,
		Owner:       t.OwnerID,
		CreatedAt:   t.CreatedAt,
	}
}
