package rules

import (
	"fmt"
	"time"

	"github.com/noah-isme/enrollment-api/internal/models"
)

var (
	termFall   = models.Term{ID: "1401-1", Name: "Fall"}
	termSpring = models.Term{ID: "1401-2", Name: "Spring"}

	math1 = models.Course{ID: "c-math1", Code: "MATH1", Name: "Math 1", Units: 3}
	phys1 = models.Course{ID: "c-phys1", Code: "PHYS1", Name: "Physics 1", Units: 3}
	prog  = models.Course{ID: "c-prog", Code: "PROG", Name: "Programming", Units: 4}
	math2 = models.Course{ID: "c-math2", Code: "MATH2", Name: "Math 2", Units: 3, Prerequisites: []models.Course{math1}}
	phys2 = models.Course{ID: "c-phys2", Code: "PHYS2", Name: "Physics 2", Units: 3, Prerequisites: []models.Course{math1, phys1}}
	ap    = models.Course{ID: "c-ap", Code: "AP", Name: "Advanced Programming", Units: 3, Prerequisites: []models.Course{prog}}
	ds    = models.Course{ID: "c-ds", Code: "DS", Name: "Data Structures", Units: 3, Prerequisites: []models.Course{ap}}
	karg  = models.Course{ID: "c-karg", Code: "KARG", Name: "Workshop", Units: 1}
	farsi = models.Course{ID: "c-farsi", Code: "FARSI", Name: "Farsi", Units: 3}
	eng   = models.Course{ID: "c-eng", Code: "ENG", Name: "English", Units: 2}
)

func examAt(day int) time.Time {
	return time.Date(2023, time.January, day, 9, 0, 0, 0, time.UTC)
}

func offer(course models.Course, section, day int) models.Offering {
	return models.Offering{ID: fmt.Sprintf("%s-%d", course.Code, section), TermID: "1402-1", Course: course, Section: section, ExamTime: examAt(day)}
}

func transcriptOf(records ...models.TranscriptRecord) *models.Transcript {
	t := models.NewTranscript()
	for _, r := range records {
		if err := t.Add(r.Course, r.Term, r.Grade); err != nil {
			panic(err)
		}
	}
	return t
}

func rec(term models.Term, course models.Course, grade float64) models.TranscriptRecord {
	return models.TranscriptRecord{Term: term, Course: course, Grade: grade}
}

// unitCourse returns a prerequisite-free course worth units.
func unitCourse(code string, units int) models.Course {
	return models.Course{ID: "c-" + code, Code: code, Name: code, Units: units}
}
