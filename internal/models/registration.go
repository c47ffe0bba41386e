package models

import "time"

// Registration is an internship application. Status is set once a moderator has handled it.
type Registration struct {
	RecordID       string    `bson:"-"`
	FirstName      string    `bson:"firstName"`
	LastName       string    `bson:"lastName"`
	IDNumber       string    `bson:"cin"`
	Phone          string    `bson:"phone"`
	Email          string    `bson:"email"`
	Facebook       string    `bson:"facebook"`
	University     string    `bson:"university"`
	InternshipType string    `bson:"internshipType"`
	StartDate      string    `bson:"startDate"`
	EndDate        string    `bson:"endDate"`
	TrainingOption string    `bson:"trainingOption"`
	Status         bool      `bson:"status"`
	CreatedAt      time.Time `bson:"createdAt"`
}

func (r Registration) ID() string { return r.RecordID }

func (r Registration) ReviewFlag() bool { return r.Status }

func (r Registration) WithReviewFlag(value bool) Registration {
	r.Status = value
	return r
}

func (r Registration) Clone() Registration { return r }
