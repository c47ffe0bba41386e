package console

import (
	"fmt"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"

	"moderation-console/internal/locales"
	"moderation-console/internal/models"
)

// itemView describes how one entity kind is shown and which label its toggle carries.
type itemView[T models.Reviewable[T]] struct {
	describe    func(loc *i18n.Localizer, item T) string
	toggleLabel func(item T) string
}

func yesNo(loc *i18n.Localizer, v bool) string {
	if v {
		return locales.GetMessage(loc, "LabelYes", nil, nil)
	}
	return locales.GetMessage(loc, "LabelNo", nil, nil)
}

func flagLine(loc *i18n.Localizer, labelID string, v bool) string {
	return fmt.Sprintf("%s: %s", locales.GetMessage(loc, labelID, nil, nil), yesNo(loc, v))
}

var projectView = itemView[models.Project]{
	describe: func(loc *i18n.Localizer, p models.Project) string {
		var b strings.Builder
		b.WriteString(p.Title)
		if p.ReleaseDate != "" {
			fmt.Fprintf(&b, " (%s)", p.ReleaseDate)
		}
		if p.Description != "" {
			b.WriteString("\n" + p.Description)
		}
		if p.InstallationLink != "" {
			b.WriteString("\n" + p.InstallationLink)
		}
		if len(p.Categories) > 0 {
			b.WriteString("\n# " + strings.Join(p.Categories, ", "))
		}
		for _, photo := range p.Photos {
			if photo != "" {
				b.WriteString("\n" + photo)
			}
		}
		b.WriteString("\n" + flagLine(loc, "LabelApproved", p.Approved))
		return b.String()
	},
	toggleLabel: func(p models.Project) string {
		if p.Approved {
			return "BtnUnapprove"
		}
		return "BtnApprove"
	},
}

var registrationView = itemView[models.Registration]{
	describe: func(loc *i18n.Localizer, r models.Registration) string {
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s", r.FirstName, r.LastName)
		if r.University != "" {
			b.WriteString(", " + r.University)
		}
		fmt.Fprintf(&b, "\n%s | %s | %s", r.Email, r.Phone, r.IDNumber)
		if r.Facebook != "" {
			b.WriteString("\n" + r.Facebook)
		}
		fmt.Fprintf(&b, "\n%s, %s", r.InternshipType, r.TrainingOption)
		if r.StartDate != "" || r.EndDate != "" {
			fmt.Fprintf(&b, "\n%s - %s", r.StartDate, r.EndDate)
		}
		b.WriteString("\n" + flagLine(loc, "LabelStatus", r.Status))
		return b.String()
	},
	toggleLabel: func(r models.Registration) string {
		if r.Status {
			return "BtnMarkPending"
		}
		return "BtnMarkHandled"
	},
}

var questionView = itemView[models.Question]{
	describe: func(loc *i18n.Localizer, q models.Question) string {
		return fmt.Sprintf("%s\n%s\n%s\n%s", q.Subject, q.Email, q.Content, flagLine(loc, "LabelAnswered", q.Answered))
	},
	toggleLabel: func(q models.Question) string {
		if q.Answered {
			return "BtnMarkUnanswered"
		}
		return "BtnMarkAnswered"
	},
}
