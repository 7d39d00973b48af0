package ops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hpungsan/careerbridge/internal/backend"
	"github.com/hpungsan/careerbridge/internal/errors"
	"github.com/hpungsan/careerbridge/internal/forms"
	"github.com/hpungsan/careerbridge/internal/localfile"
)

// MaxAttachmentBytes bounds each file attached to a form.
const MaxAttachmentBytes = 10 << 20

// SubmitFormInput contains parameters for SubmitForm.
type SubmitFormInput struct {
	Kind string
	// Data is the form as a JSON object with the API's camelCase field names.
	Data json.RawMessage
	// Files maps a multipart field name (e.g. "resume") to a local path.
	Files map[string]string
}

// SubmitForm decodes, validates and submits a detail form for the active user.
func SubmitForm(ctx context.Context, env *Env, input SubmitFormInput) (*forms.Result, error) {
	user, err := env.Session.RequireCurrent()
	if err != nil {
		return nil, err
	}
	f, err := forms.New(backend.FormKind(input.Kind))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(input.Data)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(input.Data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(f); err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid %s form data: %v", input.Kind, err))
		}
	}

	fields := make([]string, 0, len(input.Files))
	for field := range input.Files {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		lf, err := localfile.Read(input.Files[field], MaxAttachmentBytes, "")
		if err != nil {
			return nil, err
		}
		if err := forms.Attach(f, field, backend.File{Name: lf.Name, Data: lf.Data}); err != nil {
			return nil, err
		}
	}

	return env.Forms.Submit(ctx, user, f)
}
