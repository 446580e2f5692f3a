package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReviewStatus is the review state of a portfolio item or of the profile.
type ReviewStatus string

const (
	StatusPending     ReviewStatus = "pending"
	StatusResubmitted ReviewStatus = "resubmitted"
	StatusApproved    ReviewStatus = "approved"
	StatusRejected    ReviewStatus = "rejected"
	// Progress states, valid only for the thoughts-to-actions section.
	StatusInProgress ReviewStatus = "in_progress"
	StatusAchieved   ReviewStatus = "achieved"
)

// Section identifies one of the twelve portfolio categories, or the profile
// pseudo-section.
type Section string

const (
	SectionAcademicAchievements           Section = "academic_achievements"
	SectionCourseReflections              Section = "course_reflections"
	SectionBeTheChange                    Section = "be_the_change"
	SectionResearchPublications           Section = "research_publications"
	SectionInterdisciplinaryCollaboration Section = "interdisciplinary_collaboration"
	SectionConferenceParticipation        Section = "conference_participation"
	SectionCompetitionsAwards             Section = "competitions_awards"
	SectionWorkshopsTraining              Section = "workshops_training"
	SectionClinicalExperiences            Section = "clinical_experiences"
	SectionVoluntaryParticipation         Section = "voluntary_participation"
	SectionEthicsThroughArt               Section = "ethics_through_art"
	SectionThoughtsToActions              Section = "thoughts_to_actions"

	// SectionProfile is the review pseudo-section; it has no items of its own
	// and no delete operation.
	SectionProfile Section = "profile"
)

// PortfolioItem is a single submission in one section. Content holds the
// section-specific fields as JSONB; the Section tag selects the typed content
// struct used to decode and validate it.
type PortfolioItem struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"index;not null" json:"user_id"`
	Section      Section        `gorm:"type:varchar(50);index;not null" json:"section"`
	Content      datatypes.JSON `gorm:"not null" json:"content"`
	Status       ReviewStatus   `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Feedback     string         `gorm:"type:text" json:"feedback"`
	ReviewedByID *uint          `json:"reviewed_by_id,omitempty"`
	ReviewedAt   *time.Time     `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User       User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ReviewedBy *User `gorm:"foreignKey:ReviewedByID" json:"reviewed_by,omitempty"`
}

// TableName specifies the table name for PortfolioItem.
func (PortfolioItem) TableName() string {
	return "portfolio_items"
}

// Section content types. Field validation runs through the shared validator
// when items are created or edited.

type AcademicAchievement struct {
	CourseName    string `json:"course_name" validate:"required"`
	OfferedBy     string `json:"offered_by" validate:"required"`
	ModeOfStudy   string `json:"mode_of_study" validate:"required,oneof=online offline hybrid"`
	Duration      string `json:"duration"`
	CurrentStatus string `json:"current_status" validate:"required,oneof=completed in_progress planned"`
}

type CourseReflection struct {
	Year           string    `json:"year" validate:"required"`
	Date           time.Time `json:"date" validate:"required"`
	TopicOfSession string    `json:"topic_of_session" validate:"required"`
	Rating         int       `json:"rating" validate:"required,gte=1,lte=5"`
	WhatWasGood    string    `json:"what_was_good" validate:"required"`
	WhatCanBe      string    `json:"what_can_be" validate:"required"`
	WhatDidILearn  string    `json:"what_did_i_learn" validate:"required"`
}

type BeTheChange struct {
	Year            string `json:"year" validate:"required"`
	ReflectOnImpact string `json:"reflect_on_impact" validate:"required"`
}

type ResearchPublication struct {
	ProjectTitle  string `json:"project_title" validate:"required"`
	TypeOfArticle string `json:"type_of_article" validate:"required"`
	Authors       string `json:"authors" validate:"required"`
	Journal       string `json:"journal" validate:"required"`
	DOI           string `json:"doi"`
	Citation      string `json:"citation"`
	ImpactFactor  string `json:"impact_factor"`
}

type InterdisciplinaryCollaboration struct {
	ProjectTitle        string `json:"project_title" validate:"required"`
	Topic               string `json:"topic" validate:"required"`
	DisciplinesInvolved string `json:"disciplines_involved" validate:"required"`
	AnticipatedDuration string `json:"anticipated_duration" validate:"required"`
	Significance        string `json:"significance" validate:"required"`
	TeamExperience      string `json:"team_experience" validate:"required"`
	WhatWentWell        string `json:"what_went_well" validate:"required"`
	WhatCanBeImproved   string `json:"what_can_be_improved" validate:"required"`
}

type ConferenceParticipation struct {
	ConferenceName        string    `json:"conference_name" validate:"required"`
	AttendeePresenter     string    `json:"attendee_presenter" validate:"required"`
	SummaryOfWork         string    `json:"summary_of_work" validate:"required"`
	DateOfConference      time.Time `json:"date_of_conference" validate:"required"`
	Venue                 string    `json:"venue" validate:"required"`
	NationalInternational string    `json:"national_international" validate:"required"`
	Mode                  string    `json:"mode" validate:"required"`
}

type CompetitionAward struct {
	Competition    string    `json:"competition" validate:"required"`
	Venue          string    `json:"venue" validate:"required"`
	Date           time.Time `json:"date" validate:"required"`
	Mode           string    `json:"mode" validate:"required"`
	SummaryOfWork  string    `json:"summary_of_work" validate:"required"`
	AwardsReceived string    `json:"awards_received" validate:"required"`
}

type WorkshopTraining struct {
	NameOfWorkshop string `json:"name_of_workshop" validate:"required"`
	ConductedBy    string `json:"conducted_by" validate:"required"`
	Mode           string `json:"mode" validate:"required"`
	SkillsAcquired string `json:"skills_acquired" validate:"required"`
}

type ClinicalExperience struct {
	EthicalDilemma     string `json:"ethical_dilemma" validate:"required"`
	BioethicsPrinciple string `json:"bioethics_principle" validate:"required"`
	WhatWasDone        string `json:"what_was_done" validate:"required"`
	YourPerspective    string `json:"your_perspective" validate:"required"`
	HowToManage        string `json:"how_to_manage" validate:"required"`
}

type VoluntaryParticipation struct {
	NameOfOrganisation string `json:"name_of_organisation" validate:"required"`
	YourRole           string `json:"your_role" validate:"required"`
	WhatDidYouLearn    string `json:"what_did_you_learn" validate:"required"`
	PositiveInfluence  string `json:"positive_influence" validate:"required"`
}

type EthicsThroughArt struct {
	WorkAbout     string `json:"work_about" validate:"required"`
	WhyThisTopic  string `json:"why_this_topic" validate:"required"`
	HowExpressed  string `json:"how_expressed" validate:"required"`
	WhyThisFormat string `json:"why_this_format" validate:"required"`
}

type ThoughtToAction struct {
	FuturePlan string     `json:"future_plan" validate:"required"`
	TargetDate *time.Time `json:"target_date,omitempty"`
}

// sectionSpec describes one portfolio section: how to build its typed content,
// which review statuses it accepts, and which status an owner edit of a
// rejected item transitions to.
type sectionSpec struct {
	newContent   func() any
	statuses     []ReviewStatus
	rejectedEdit ReviewStatus
}

var baseStatuses = []ReviewStatus{StatusPending, StatusResubmitted, StatusApproved, StatusRejected}

// sectionRegistry maps every section tag to its spec. The rejected-edit
// transition differs across sections: ten sections re-enter review as
// "resubmitted", while ethics-through-art and thoughts-to-actions historically
// re-enter as "pending". The split is preserved here deliberately rather than
// unified.
var sectionRegistry = map[Section]sectionSpec{
	SectionAcademicAchievements: {
		newContent:   func() any { return &AcademicAchievement{} },
		statuses:     baseStatuses,
		rejectedEdit: StatusResubmitted,
	},
	SectionCourseReflections: {
		newContent:   func() any { return &CourseReflection{} },
		statuses:     baseStatuses,
		rejectedEdit: StatusResubmitted,
	},
	SectionBeTheChange: {
		newContent:   func() any { return &BeTheChange{} },
		statuses:     baseStatuses,
		rejectedEdit: StatusResubmitted,
	},
	SectionResearchPublications: {
		newContent:   func() any { return &ResearchPublication{} },
		statuses:     baseStatuses,
		rejectedEdit: StatusResubmitted,
	},
	SectionInterdisciplinaryCollaboration: {
		newContent:   func() any { return &InterdisciplinaryCollaboration{} },
		statuses:     baseStatuses,
		rejectedEdit: StatusResubmitted,
	},
	SectionConferenceParticipation: {
		newContent:   func() any { return &ConferenceParticipation{} },
		statuses:     baseStatuses,
		rejectedEdit: StatusResubmitted,
	},
	SectionCompetitionsAwards: {
		newContent:   func() any { return &CompetitionAward{} },
		statuses:     baseStatuses,
		rejectedEdit: StatusResubmitted,
	},
	SectionWorkshopsTraining: {
		newContent:   func() any { return &WorkshopTraining{} },
		statuses:     baseStatuses,
		rejectedEdit: StatusResubmitted,
	},
	SectionClinicalExperiences: {
		newContent:   func() any { return &ClinicalExperience{} },
		statuses:     baseStatuses,
		rejectedEdit: StatusResubmitted,
	},
	SectionVoluntaryParticipation: {
		newContent:   func() any { return &VoluntaryParticipation{} },
		statuses:     baseStatuses,
		rejectedEdit: StatusResubmitted,
	},
	SectionEthicsThroughArt: {
		newContent:   func() any { return &EthicsThroughArt{} },
		statuses:     baseStatuses,
		rejectedEdit: StatusPending,
	},
	SectionThoughtsToActions: {
		newContent:   func() any { return &ThoughtToAction{} },
		statuses:     []ReviewStatus{StatusPending, StatusInProgress, StatusAchieved, StatusApproved, StatusRejected},
		rejectedEdit: StatusPending,
	},
}

// AllSections returns the twelve item-bearing section tags in stable order.
// The profile pseudo-section is excluded.
func AllSections() []Section {
	return []Section{
		SectionAcademicAchievements,
		SectionCourseReflections,
		SectionBeTheChange,
		SectionResearchPublications,
		SectionInterdisciplinaryCollaboration,
		SectionConferenceParticipation,
		SectionCompetitionsAwards,
		SectionWorkshopsTraining,
		SectionClinicalExperiences,
		SectionVoluntaryParticipation,
		SectionEthicsThroughArt,
		SectionThoughtsToActions,
	}
}

// Valid reports whether s is one of the twelve item-bearing sections.
func (s Section) Valid() bool {
	_, ok := sectionRegistry[s]
	return ok
}

// NewContent returns a pointer to a zero value of the section's typed content
// struct, or false for an unknown section tag.
func (s Section) NewContent() (any, bool) {
	spec, ok := sectionRegistry[s]
	if !ok {
		return nil, false
	}
	return spec.newContent(), true
}

// AllowsStatus reports whether st is a legal review status for the section.
// The profile pseudo-section accepts the base statuses.
func (s Section) AllowsStatus(st ReviewStatus) bool {
	statuses := baseStatuses
	if spec, ok := sectionRegistry[s]; ok {
		statuses = spec.statuses
	} else if s != SectionProfile {
		return false
	}
	for _, allowed := range statuses {
		if st == allowed {
			return true
		}
	}
	return false
}

// RejectedEditStatus returns the status an owner content edit applies when the
// item's current status is rejected.
func (s Section) RejectedEditStatus() ReviewStatus {
	if spec, ok := sectionRegistry[s]; ok {
		return spec.rejectedEdit
	}
	return StatusResubmitted
}
