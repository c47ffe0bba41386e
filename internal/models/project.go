package models

import "time"

// Project is a community project listing. It is shown publicly once approved.
type Project struct {
	RecordID         string    `bson:"-"`
	Title            string    `bson:"title"`
	Description      string    `bson:"description"`
	ReleaseDate      string    `bson:"releaseDate"`
	InstallationLink string    `bson:"installationLink"`
	Photos           []string  `bson:"photos"`     // Display order matters; duplicates and blanks allowed
	Categories       []string  `bson:"categories"` // Same rules as Photos
	Approved         bool      `bson:"approved"`
	CreatedAt        time.Time `bson:"createdAt"`
}

func (p Project) ID() string { return p.RecordID }

func (p Project) ReviewFlag() bool { return p.Approved }

func (p Project) WithReviewFlag(value bool) Project {
	out := p.Clone()
	out.Approved = value
	return out
}

func (p Project) Clone() Project {
	p.Photos = copyStrings(p.Photos)
	p.Categories = copyStrings(p.Categories)
	return p
}
