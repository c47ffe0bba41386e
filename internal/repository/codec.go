package repository

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"moderation-console/internal/models"
	"moderation-console/internal/store"
)

const createdAtField = "createdAt"

// Codec describes how one entity kind maps onto a remote collection.
type Codec[T models.Reviewable[T]] struct {
	Kind       string
	Collection store.CollectionRef
	FlagField  string
	Decode     func(store.Record) (T, error)
	Encode     func(T) store.Payload
	Stamp      func(item T, createdAt time.Time) T
}

// decodePayload converts an untyped payload into out through BSON, so field
// types are checked against the struct tags. Timestamps written as RFC 3339
// strings are accepted alongside native dates.
func decodePayload(p store.Payload, out interface{}) error {
	normalized := make(store.Payload, len(p))
	for k, v := range p {
		normalized[k] = v
	}
	if raw, ok := normalized[createdAtField].(string); ok {
		if raw == "" {
			delete(normalized, createdAtField)
		} else {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", createdAtField, raw, err)
			}
			normalized[createdAtField] = ts
		}
	}

	data, err := bson.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := bson.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

func copyStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// ProjectCodec maps Projects onto the "projects" document collection.
var ProjectCodec = Codec[models.Project]{
	Kind:       models.KindProject,
	Collection: store.ProjectsCollection,
	FlagField:  "approved",
	Decode: func(rec store.Record) (models.Project, error) {
		var p models.Project
		if err := decodePayload(rec.Payload, &p); err != nil {
			return models.Project{}, err
		}
		p.RecordID = rec.ID
		return p, nil
	},
	Encode: func(p models.Project) store.Payload {
		return store.Payload{
			"title":            p.Title,
			"description":      p.Description,
			"releaseDate":      p.ReleaseDate,
			"installationLink": p.InstallationLink,
			"photos":           copyStrings(p.Photos),
			"categories":       copyStrings(p.Categories),
			"approved":         p.Approved,
			createdAtField:     p.CreatedAt,
		}
	},
	Stamp: func(p models.Project, createdAt time.Time) models.Project {
		p.CreatedAt = createdAt
		return p
	},
}

// RegistrationCodec maps Registrations onto the "registrations" tree path.
var RegistrationCodec = Codec[models.Registration]{
	Kind:       models.KindRegistration,
	Collection: store.RegistrationsCollection,
	FlagField:  "status",
	Decode: func(rec store.Record) (models.Registration, error) {
		var r models.Registration
		if err := decodePayload(rec.Payload, &r); err != nil {
			return models.Registration{}, err
		}
		r.RecordID = rec.ID
		return r, nil
	},
	Encode: func(r models.Registration) store.Payload {
		return store.Payload{
			"firstName":      r.FirstName,
			"lastName":       r.LastName,
			"cin":            r.IDNumber,
			"phone":          r.Phone,
			"email":          r.Email,
			"facebook":       r.Facebook,
			"university":     r.University,
			"internshipType": r.InternshipType,
			"startDate":      r.StartDate,
			"endDate":        r.EndDate,
			"trainingOption": r.TrainingOption,
			"status":         r.Status,
			createdAtField:   r.CreatedAt,
		}
	},
	Stamp: func(r models.Registration, createdAt time.Time) models.Registration {
		r.CreatedAt = createdAt
		return r
	},
}

// QuestionCodec maps Questions onto the "Questions" tree path.
var QuestionCodec = Codec[models.Question]{
	Kind:       models.KindQuestion,
	Collection: store.QuestionsCollection,
	FlagField:  "answered",
	Decode: func(rec store.Record) (models.Question, error) {
		var q models.Question
		if err := decodePayload(rec.Payload, &q); err != nil {
			return models.Question{}, err
		}
		q.RecordID = rec.ID
		return q, nil
	},
	Encode: func(q models.Question) store.Payload {
		return store.Payload{
			"email":        q.Email,
			"subject":      q.Subject,
			"content":      q.Content,
			"answered":     q.Answered,
			createdAtField: q.CreatedAt,
		}
	},
	Stamp: func(q models.Question, createdAt time.Time) models.Question {
		q.CreatedAt = createdAt
		return q
	},
}
