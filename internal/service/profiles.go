package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/school-portal/internal/apperr"
	"github.com/Shivanand-hulikatti/school-portal/internal/auth"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
)

// Profile is everything the parent portal shows about the caller.
// Family is nil until the caller saves household details or a student.
type Profile struct {
	User     *model.UserProfile `json:"user"`
	Family   *model.Family      `json:"family"`
	Students []model.Student    `json:"students"`
}

// ProfileService manages parent profiles, families and their students.
type ProfileService struct {
	profiles ProfileStore
	Common
}

// NewProfileService constructs a ProfileService.
func NewProfileService(profiles ProfileStore, common Common) *ProfileService {
	return &ProfileService{profiles: profiles, Common: common.withDefaults()}
}

// Profile returns the caller's profile, family and students.
func (s *ProfileService) Profile(ctx context.Context, actor *auth.Principal) (*Profile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	out := &Profile{Students: []model.Student{}}

	user, err := s.profiles.GetUser(ctx, actor.UserID)
	switch {
	case err == nil:
		out.User = user
	case errors.Is(err, apperr.ErrNotFound):
		out.User = &model.UserProfile{ID: actor.UserID, Email: actor.Email}
	default:
		return nil, err
	}

	family, err := s.profiles.FamilyByUser(ctx, actor.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	out.Family = family
	students, err := s.profiles.Students(ctx, family.ID)
	if err != nil {
		return nil, err
	}
	if students != nil {
		out.Students = students
	}
	return out, nil
}

// UpdateUser sets the caller's display name.
func (s *ProfileService) UpdateUser(ctx context.Context, actor *auth.Principal, req model.UserProfileRequest) (*model.UserProfile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.Validator.Struct(req); err != nil {
		return nil, err
	}
	user, err := s.profiles.UpsertUser(ctx, &model.UserProfile{ID: actor.UserID, Email: actor.Email, Name: &req.Name})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "user.update", "users", actor.UserID, map[string]any{"name": req.Name})
	return user, nil
}

// UpdateFamily saves the caller's household details, creating the family
// on first use. Nil fields are left untouched.
func (s *ProfileService) UpdateFamily(ctx context.Context, actor *auth.Principal, req model.FamilyRequest) (*model.Family, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.Validator.Struct(req); err != nil {
		return nil, err
	}
	family, err := s.ensureFamily(ctx, actor)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if req.Address != nil {
		family.Address = trimmed(req.Address)
		changes["address"] = family.Address
	}
	if req.Phone != nil {
		family.Phone = trimmed(req.Phone)
		changes["phone"] = family.Phone
	}
	if err := s.profiles.UpdateFamily(ctx, family); err != nil {
		return nil, err
	}
	s.record(ctx, actor, "family.update", "families", family.ID, changes)
	return family, nil
}

// CreateStudent adds a student to the caller's family.
func (s *ProfileService) CreateStudent(ctx context.Context, actor *auth.Principal, req model.StudentRequest) (*model.Student, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.checkStudent(&req); err != nil {
		return nil, err
	}
	family, err := s.ensureFamily(ctx, actor)
	if err != nil {
		return nil, err
	}
	student, err := s.profiles.CreateStudent(ctx, &model.Student{
		FamilyID: family.ID,
		Name:     req.Name,
		DOB:      req.DOB,
		Grade:    req.Grade,
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "student.create", "students", student.ID, studentChanges(req))
	return student, nil
}

// UpdateStudent replaces the details of one of the caller's students.
func (s *ProfileService) UpdateStudent(ctx context.Context, actor *auth.Principal, id string, req model.StudentRequest) (*model.Student, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.checkStudent(&req); err != nil {
		return nil, err
	}
	student, err := s.ownStudent(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	student.Name, student.DOB, student.Grade = req.Name, req.DOB, req.Grade
	if err := s.profiles.UpdateStudent(ctx, student); err != nil {
		return nil, err
	}
	s.record(ctx, actor, "student.update", "students", student.ID, studentChanges(req))
	return student, nil
}

// DeleteStudent removes one of the caller's students.
func (s *ProfileService) DeleteStudent(ctx context.Context, actor *auth.Principal, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	student, err := s.ownStudent(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.profiles.DeleteStudent(ctx, student.ID); err != nil {
		return err
	}
	s.record(ctx, actor, "student.delete", "students", student.ID, nil)
	return nil
}

func (s *ProfileService) ensureFamily(ctx context.Context, actor *auth.Principal) (*model.Family, error) {
	family, err := s.profiles.FamilyByUser(ctx, actor.UserID)
	if !errors.Is(err, apperr.ErrNotFound) {
		return family, err
	}
	return s.profiles.CreateFamily(ctx, &model.Family{PrimaryUserID: actor.UserID})
}

// ownStudent loads a student of the caller's family. Students of other
// families are reported as missing.
func (s *ProfileService) ownStudent(ctx context.Context, actor *auth.Principal, id string) (*model.Student, error) {
	family, err := s.profiles.FamilyByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	student, err := s.profiles.Student(ctx, id)
	if err != nil {
		return nil, err
	}
	if student.FamilyID != family.ID {
		return nil, apperr.NotFound("student")
	}
	return student, nil
}

func (s *ProfileService) checkStudent(req *model.StudentRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Grade = trimmed(req.Grade)
	if err := s.Validator.Struct(*req); err != nil {
		return err
	}
	dob, _ := time.Parse(time.DateOnly, req.DOB)
	if dob.After(time.Now()) {
		return apperr.Invalid("dob must not be in the future")
	}
	return nil
}

func studentChanges(req model.StudentRequest) map[string]any {
	changes := map[string]any{"name": req.Name, "dob": req.DOB}
	if req.Grade != nil {
		changes["grade"] = *req.Grade
	}
	return changes
}

// trimmed returns a trimmed copy of v, or nil when v is nil or blank.
func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
