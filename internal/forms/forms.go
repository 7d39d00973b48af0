// Package forms validates and submits the personal, education and job detail
// forms, awarding points for new or changed details.
package forms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hpungsan/careerbridge/internal/backend"
	"github.com/hpungsan/careerbridge/internal/errors"
)

// Form is one of the detail forms.
type Form interface {
	Kind() backend.FormKind
	// Attachments returns the files to upload alongside the JSON data.
	Attachments() []backend.File
}

// Personal is the personal details form.
type Personal struct {
	Name          string `json:"name" validate:"notblank" label:"Full Name"`
	Email         string `json:"email" validate:"notblank,emailish" label:"Email Address"`
	Phone         string `json:"phone" validate:"notblank" label:"Phone Number"`
	DateOfBirth   string `json:"dateOfBirth" validate:"notblank" label:"Date of Birth"`
	Age           string `json:"age"`
	Gender        string `json:"gender" validate:"notblank" label:"Gender"`
	MaritalStatus string `json:"maritalStatus"`
	Address       string `json:"address" validate:"notblank" label:"Address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Pincode       string `json:"pincode"`
	Country       string `json:"country"`
	AadharNumber  string `json:"aadharNumber"`
	Nationality   string `json:"nationality"`
	Religion      string `json:"religion"`
	Category      string `json:"category"`
	BloodGroup    string `json:"bloodGroup"`

	FatherName       string `json:"fatherName"`
	FatherOccupation string `json:"fatherOccupation"`
	FatherPhone      string `json:"fatherPhone"`
	MotherName       string `json:"motherName"`
	MotherOccupation string `json:"motherOccupation"`
	MotherPhone      string `json:"motherPhone"`
	GuardianName     string `json:"guardianName"`
	GuardianRelation string `json:"guardianRelation"`
	GuardianPhone    string `json:"guardianPhone"`
	GuardianAddress  string `json:"guardianAddress"`

	EmergencyContactName     string `json:"emergencyContactName"`
	EmergencyContactPhone    string `json:"emergencyContactPhone"`
	EmergencyContactRelation string `json:"emergencyContactRelation"`

	ProfilePhoto *backend.File `json:"-"`
}

func (*Personal) Kind() backend.FormKind { return backend.FormPersonal }

func (p *Personal) Attachments() []backend.File {
	if p.ProfilePhoto == nil {
		return nil
	}
	f := *p.ProfilePhoto
	f.Field = "profilePhoto"
	return []backend.File{f}
}

// Activity is one college activity on the education form.
type Activity struct {
	ActivityName string        `json:"activityName"`
	Description  string        `json:"description"`
	Certificate  *backend.File `json:"-"`
}

// Education is the education details form.
type Education struct {
	TenthSchool       string `json:"tenthSchool"`
	TenthBoard        string `json:"tenthBoard"`
	TenthPercentage   string `json:"tenthPercentage"`
	TenthYear         string `json:"tenthYear"`
	TwelfthSchool     string `json:"twelfthSchool"`
	TwelfthBoard      string `json:"twelfthBoard"`
	TwelfthStream     string `json:"twelfthStream"`
	TwelfthPercentage string `json:"twelfthPercentage"`
	TwelfthYear       string `json:"twelfthYear"`

	CollegeName       string `json:"collegeName" validate:"notblank" label:"College Name"`
	Degree            string `json:"degree" validate:"notblank" label:"Degree"`
	Specialization    string `json:"specialization"`
	University        string `json:"university"`
	Department        string `json:"department"`
	RollNumber        string `json:"rollNumber"`
	CGPA              string `json:"cgpa"`
	Percentage        string `json:"percentage"`
	StartDate         string `json:"startDate" validate:"notblank" label:"Start Date"`
	EndDate           string `json:"endDate"`
	CurrentlyStudying bool   `json:"currentlyStudying"`
	Semester          string `json:"semester"`

	Skills                   string `json:"skills"`
	Achievements             string `json:"achievements"`
	Extracurricular          string `json:"extracurricular"`
	Projects                 string `json:"projects"`
	AdditionalDegree         string `json:"additionalDegree"`
	AdditionalCertifications string `json:"additionalCertifications"`

	Activities []Activity `json:"collegeActivities,omitempty"`

	TenthMarksheet   *backend.File `json:"-"`
	TwelfthMarksheet *backend.File `json:"-"`
}

func (*Education) Kind() backend.FormKind { return backend.FormEducation }

func (e *Education) Attachments() []backend.File {
	var files []backend.File
	if e.TenthMarksheet != nil {
		f := *e.TenthMarksheet
		f.Field = "tenthMarksheet"
		files = append(files, f)
	}
	if e.TwelfthMarksheet != nil {
		f := *e.TwelfthMarksheet
		f.Field = "twelfthMarksheet"
		files = append(files, f)
	}
	for i, a := range e.Activities {
		if a.Certificate == nil {
			continue
		}
		f := *a.Certificate
		f.Field = fmt.Sprintf("activityCertificate%d", i)
		files = append(files, f)
	}
	return files
}

// Job is the job details form.
type Job struct {
	CompanyName      string   `json:"companyName" validate:"notblank" label:"Company Name"`
	Role             string   `json:"role" validate:"notblank" label:"Role"`
	EmploymentType   string   `json:"employmentType" validate:"notblank" label:"Employment Type"`
	Industry         string   `json:"industry" validate:"notblank" label:"Industry"`
	Experience       string   `json:"experience" validate:"notblank" label:"Experience"`
	StartDate        string   `json:"startDate" validate:"notblank" label:"Start Date"`
	EndDate          string   `json:"endDate"`
	CurrentlyWorking bool     `json:"currentlyWorking"`
	Salary           string   `json:"salary"`
	Location         string   `json:"location" validate:"notblank" label:"Location"`
	JobDescription   string   `json:"jobDescription" validate:"notblank" label:"Job Description"`
	SkillsUsed       []string `json:"skillsUsed,omitempty"`
	Achievements     string   `json:"achievements"`
	ManagerName      string   `json:"managerName"`
	ManagerContact   string   `json:"managerContact"`
	HRContact        string   `json:"hrContact"`

	NoticePeriod      string `json:"noticePeriod"`
	PreferredLocation string `json:"preferredLocation"`
	ExpectedSalary    string `json:"expectedSalary"`
	ReasonForLeaving  string `json:"reasonForLeaving"`

	Resume           *backend.File `json:"-" validate:"required" label:"Resume"`
	OfferLetter      *backend.File `json:"-"`
	ExperienceLetter *backend.File `json:"-"`
}

func (*Job) Kind() backend.FormKind { return backend.FormJob }

func (j *Job) Attachments() []backend.File {
	var files []backend.File
	for _, a := range []struct {
		field string
		file  *backend.File
	}{
		{"resume", j.Resume},
		{"offerLetter", j.OfferLetter},
		{"experienceLetter", j.ExperienceLetter},
	} {
		if a.file == nil {
			continue
		}
		f := *a.file
		f.Field = a.field
		files = append(files, f)
	}
	return files
}

// New returns an empty form of the given kind.
func New(kind backend.FormKind) (Form, error) {
	switch kind {
	case backend.FormPersonal:
		return &Personal{}, nil
	case backend.FormEducation:
		return &Education{}, nil
	case backend.FormJob:
		return &Job{}, nil
	}
	return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown form %q", kind))
}

// Attach sets the file for a multipart field name on f, e.g. "resume" or
// "activityCertificate0".
func Attach(f Form, field string, file backend.File) error {
	file.Field = field
	switch v := f.(type) {
	case *Personal:
		if field == "profilePhoto" {
			v.ProfilePhoto = &file
			return nil
		}
	case *Education:
		switch field {
		case "tenthMarksheet":
			v.TenthMarksheet = &file
			return nil
		case "twelfthMarksheet":
			v.TwelfthMarksheet = &file
			return nil
		}
		if rest, ok := strings.CutPrefix(field, "activityCertificate"); ok {
			i, err := strconv.Atoi(rest)
			if err != nil || i < 0 || i >= len(v.Activities) {
				return errors.NewInvalidRequest(fmt.Sprintf("no activity for %s", field))
			}
			v.Activities[i].Certificate = &file
			return nil
		}
	case *Job:
		switch field {
		case "resume":
			v.Resume = &file
			return nil
		case "offerLetter":
			v.OfferLetter = &file
			return nil
		case "experienceLetter":
			v.ExperienceLetter = &file
			return nil
		}
	}
	return errors.NewInvalidRequest(fmt.Sprintf("%s form has no file field %q", f.Kind(), field))
}
