package models

import "time"

// Question is a support question sent through the contact form.
type Question struct {
	RecordID  string    `bson:"-"`
	Email     string    `bson:"email"`
	Subject   string    `bson:"subject"`
	Content   string    `bson:"content"`
	Answered  bool      `bson:"answered"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (q Question) ID() string { return q.RecordID }

func (q Question) ReviewFlag() bool { return q.Answered }

func (q Question) WithReviewFlag(value bool) Question {
	q.Answered = value
	return q
}

func (q Question) Clone() Question { return q }
