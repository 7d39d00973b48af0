package forms

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hpungsan/careerbridge/internal/backend"
	"github.com/hpungsan/careerbridge/internal/errors"
	"github.com/hpungsan/careerbridge/internal/events"
	"github.com/hpungsan/careerbridge/internal/identity"
	"github.com/hpungsan/careerbridge/internal/ledger"
)

// Award is what a form earns when its details are new or changed.
type Award struct {
	Points  int
	Reason  string
	Message string
}

// Awards holds the per-form points configuration.
var Awards = map[backend.FormKind]Award{
	backend.FormPersonal: {
		Points:  10,
		Reason:  "Completed Personal Information form",
		Message: "🎯 Personal details completed! Your information has been saved successfully.",
	},
	backend.FormEducation: {
		Points:  10,
		Reason:  "Added Education Details",
		Message: "📘 Education background updated! Your academic info is now complete.",
	},
	backend.FormJob: {
		Points:  10,
		Reason:  "Added Job Details",
		Message: "💼 Job experience recorded! Your professional details are saved.",
	},
}

// eventMessage is the notification text published after an award.
func eventMessage(kind backend.FormKind, a Award, created bool) string {
	switch kind {
	case backend.FormPersonal:
		if created {
			return fmt.Sprintf("+%d points: Added Personal Details", a.Points)
		}
		return fmt.Sprintf("+%d points: Updated Personal Details", a.Points)
	case backend.FormEducation:
		if created {
			return a.Message
		}
		return "Education details updated!"
	case backend.FormJob:
		if created {
			return a.Message
		}
		return "Job details updated!"
	}
	return ""
}

// API is the slice of the backend client forms need.
type API interface {
	GetForm(ctx context.Context, kind backend.FormKind, userID string) (json.RawMessage, error)
	SaveForm(ctx context.Context, kind backend.FormKind, userID string, data any, files ...backend.File) (json.RawMessage, error)
}

// Awarder credits points to the active user.
type Awarder interface {
	AddPoints(ctx context.Context, n int, reason string) (ledger.Entry, error)
}

// Publisher receives the form's own pointsEarned event.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event)
}

// Submitter saves forms and awards points.
type Submitter struct {
	api     API
	awarder Awarder
	pub     Publisher
	logger  *log.Logger
}

// NewSubmitter wires a Submitter. pub may be nil.
func NewSubmitter(api API, awarder Awarder, pub Publisher, logger *log.Logger) *Submitter {
	if logger == nil {
		logger = log.Default()
	}
	return &Submitter{api: api, awarder: awarder, pub: pub, logger: logger}
}

// Result reports the outcome of a submit.
type Result struct {
	Kind          backend.FormKind `json:"kind"`
	Created       bool             `json:"created"`
	Changed       bool             `json:"changed"`
	PointsAwarded int              `json:"points_awarded"`
	Message       string           `json:"message,omitempty"`
	Data          json.RawMessage  `json:"data,omitempty"`
}

// Submit validates f, saves it for user and, when the details are new or
// differ from what the API already holds, awards the form's points and
// publishes its pointsEarned message. Validation runs before any network call.
func (s *Submitter) Submit(ctx context.Context, user *identity.Identity, f Form) (*Result, error) {
	if user == nil || user.ID == "" {
		return nil, errors.NewUnauthenticated()
	}
	if f == nil {
		return nil, errors.NewInvalidRequest("form is required")
	}
	if err := Validate(f); err != nil {
		return nil, err
	}
	kind := f.Kind()

	existing, err := s.api.GetForm(ctx, kind, user.ID)
	if err != nil {
		// treated as a first submission
		s.logger.Printf("forms: load existing %s details for %s: %v", kind, user.ID, err)
	}
	created := existing == nil
	files := f.Attachments()
	changed := created || len(files) > 0 || differs(existing, f)

	payload, err := withUserID(f, user.ID)
	if err != nil {
		return nil, err
	}
	saved, err := s.api.SaveForm(ctx, kind, user.ID, payload, files...)
	if err != nil {
		return nil, err
	}

	res := &Result{Kind: kind, Created: created, Changed: changed, Data: saved}
	if kind == backend.FormPersonal {
		s.publishPhoto(ctx, user, f.(*Personal), saved)
	}
	if !changed {
		return res, nil
	}

	award := Awards[kind]
	if _, err := s.awarder.AddPoints(ctx, award.Points, award.Reason); err != nil {
		s.logger.Printf("forms: award %s points for %s: %v", kind, user.ID, err)
		return res, nil
	}
	res.PointsAwarded = award.Points
	res.Message = eventMessage(kind, award, created)
	if s.pub != nil {
		s.pub.Publish(ctx, events.Event{
			Topic: events.TopicPointsEarned,
			Payload: events.PointsEarned{
				Points:   award.Points,
				Reason:   award.Reason,
				Message:  res.Message,
				FormType: string(kind),
			},
		})
	}
	return res, nil
}

func (s *Submitter) publishPhoto(ctx context.Context, user *identity.Identity, p *Personal, saved json.RawMessage) {
	if p.ProfilePhoto == nil || s.pub == nil || len(saved) == 0 {
		return
	}
	var v struct {
		ProfilePhoto string `json:"profilePhoto"`
	}
	if err := json.Unmarshal(saved, &v); err != nil || v.ProfilePhoto == "" {
		return
	}
	s.pub.Publish(ctx, events.Event{
		Topic:   events.TopicProfilePhotoUpdated,
		Payload: events.ProfilePhotoUpdated{UserID: user.ID, URL: v.ProfilePhoto},
	})
}

// withUserID flattens f to a JSON object carrying userId.
func withUserID(f Form, userID string) (map[string]any, error) {
	fields, err := toMap(f)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	fields["userId"] = userID
	return fields, nil
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// differs reports whether any submitted field differs from the stored
// record. Missing and empty values compare equal; nested values such as the
// activity list compare by their JSON encoding.
func differs(existing json.RawMessage, f Form) bool {
	stored := map[string]any{}
	if err := json.Unmarshal(existing, &stored); err != nil {
		return true
	}
	submitted, err := toMap(f)
	if err != nil {
		return true
	}
	for key, v := range submitted {
		if normalize(v) != normalize(stored[key]) {
			return true
		}
	}
	return false
}

func normalize(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
		return "true"
	case float64:
		return fmt.Sprint(t)
	}
	raw, _ := json.Marshal(v)
	return string(raw)
}
