package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hey-coffee/maintenance-service/internal/domain"
	"github.com/hey-coffee/maintenance-service/internal/repository"
	"github.com/hey-coffee/maintenance-service/internal/sla"
)

// In-memory repository fakes mirroring the conditional-update semantics of
// the SQL layer: guarded mutations touch only rows in the expected pre-state
// and report pgx.ErrNoRows otherwise. Pause intervals live alongside the
// requests, matching the transactional pairing of the real repository.

type fakeRequestRepo struct {
	mu        sync.Mutex
	requests  map[string]*domain.MaintenanceRequest
	intervals []domain.PauseInterval
	seq       int
	iseq      int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[string]*domain.MaintenanceRequest{}}
}

func (f *fakeRequestRepo) Create(_ context.Context, req *domain.MaintenanceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	req.ID = fmt.Sprintf("req-%d", f.seq)
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	clone := *req
	f.requests[req.ID] = &clone
	return nil
}

func (f *fakeRequestRepo) Update(_ context.Context, req *domain.MaintenanceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requests[req.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *req
	f.requests[req.ID] = &clone
	return nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id string) (*domain.MaintenanceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *req
	return &clone, nil
}

func (f *fakeRequestRepo) GetByExternalKey(_ context.Context, key string) (*domain.MaintenanceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.requests {
		if req.ExternalKey == key {
			clone := *req
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeRequestRepo) ListWithFilter(_ context.Context, _ repository.RequestFilter) ([]domain.MaintenanceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.MaintenanceRequest, 0, len(f.requests))
	for _, req := range f.requests {
		out = append(out, *req)
	}
	return out, nil
}

func (f *fakeRequestRepo) ListOpen(_ context.Context, _ int) ([]domain.MaintenanceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.MaintenanceRequest, 0, len(f.requests))
	for _, req := range f.requests {
		if !req.Status.IsTerminal() {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) AssignUser(_ context.Context, requestID, profileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[requestID]
	if !ok || req.Status != domain.RequestStatusPending || req.AssignedUserID != nil || req.AssignedVendorID != nil {
		return pgx.ErrNoRows
	}
	req.Status = domain.RequestStatusAssigned
	req.AssignedUserID = &profileID
	return nil
}

func (f *fakeRequestRepo) AssignVendor(_ context.Context, requestID, vendorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[requestID]
	if !ok || req.Status != domain.RequestStatusPending || req.AssignedUserID != nil || req.AssignedVendorID != nil {
		return pgx.ErrNoRows
	}
	req.Status = domain.RequestStatusAssigned
	req.AssignedVendorID = &vendorID
	return nil
}

func (f *fakeRequestRepo) MarkPaused(_ context.Context, interval *domain.PauseInterval) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[interval.RequestID]
	if !ok || req.IsPaused || req.Status != domain.RequestStatusInProgress {
		return pgx.ErrNoRows
	}
	req.IsPaused = true
	at := interval.StartedAt
	req.PausedAt = &at
	f.iseq++
	interval.ID = fmt.Sprintf("pause-%d", f.iseq)
	interval.CreatedAt = time.Now()
	f.intervals = append(f.intervals, *interval)
	return nil
}

func (f *fakeRequestRepo) MarkResumed(_ context.Context, requestID string, endedAt time.Time) (*domain.PauseInterval, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[requestID]
	if !ok || !req.IsPaused {
		return nil, time.Time{}, pgx.ErrNoRows
	}
	for i := range f.intervals {
		if f.intervals[i].RequestID != requestID || f.intervals[i].EndedAt != nil {
			continue
		}
		at := endedAt
		f.intervals[i].EndedAt = &at
		newDueAt := sla.ExtendDue(req.DueAt, endedAt.Sub(f.intervals[i].StartedAt))
		req.IsPaused = false
		req.PausedAt = nil
		req.DueAt = newDueAt
		clone := f.intervals[i]
		return &clone, newDueAt, nil
	}
	return nil, time.Time{}, pgx.ErrNoRows
}

// fakePauseRepo is a read-only view over the request repo's intervals,
// matching the split between RequestRepository writes and
// PauseIntervalRepository reads.
type fakePauseRepo struct {
	requests *fakeRequestRepo
}

func (f *fakePauseRepo) ListByRequest(_ context.Context, requestID string) ([]domain.PauseInterval, error) {
	f.requests.mu.Lock()
	defer f.requests.mu.Unlock()
	out := []domain.PauseInterval{}
	for _, interval := range f.requests.intervals {
		if interval.RequestID == requestID {
			out = append(out, interval)
		}
	}
	return out, nil
}

type fakeRotationStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newFakeRotationStore() *fakeRotationStore {
	return &fakeRotationStore{counters: map[string]int64{}}
}

func (f *fakeRotationStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.counters[key]
	if !ok {
		return "", nil
	}
	return strconv.FormatInt(value, 10), nil
}

func (f *fakeRotationStore) Incr(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[key]++
	return f.counters[key], nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.RequestHistory
}

func (f *fakeHistoryRepo) Create(_ context.Context, entry *domain.RequestHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = fmt.Sprintf("hist-%d", len(f.entries)+1)
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeHistoryRepo) ListByRequest(_ context.Context, requestID string) ([]domain.RequestHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.RequestHistory{}
	for _, entry := range f.entries {
		if entry.RequestID == requestID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeCalendarRepo struct {
	hours    map[string][]domain.WorkingHours
	holidays map[string][]domain.Holiday
}

func newFakeCalendarRepo() *fakeCalendarRepo {
	return &fakeCalendarRepo{
		hours:    map[string][]domain.WorkingHours{},
		holidays: map[string][]domain.Holiday{},
	}
}

func (f *fakeCalendarRepo) UpsertWorkingHours(_ context.Context, hours *domain.WorkingHours) error {
	f.hours[hours.BranchID] = append(f.hours[hours.BranchID], *hours)
	return nil
}

func (f *fakeCalendarRepo) ListWorkingHours(_ context.Context, branchID string) ([]domain.WorkingHours, error) {
	return f.hours[branchID], nil
}

func (f *fakeCalendarRepo) CreateHoliday(_ context.Context, holiday *domain.Holiday) error {
	key := ""
	if holiday.BranchID != nil {
		key = *holiday.BranchID
	}
	f.holidays[key] = append(f.holidays[key], *holiday)
	return nil
}

func (f *fakeCalendarRepo) DeleteHoliday(_ context.Context, _ string) error { return nil }

func (f *fakeCalendarRepo) ListHolidays(_ context.Context, branchID string) ([]domain.Holiday, error) {
	return append(f.holidays[branchID], f.holidays[""]...), nil
}

type fakeBranchRepo struct {
	branches map[string]*domain.Branch
}

func newFakeBranchRepo(branches ...*domain.Branch) *fakeBranchRepo {
	repo := &fakeBranchRepo{branches: map[string]*domain.Branch{}}
	for _, branch := range branches {
		repo.branches[branch.ID] = branch
	}
	return repo
}

func (f *fakeBranchRepo) Create(_ context.Context, branch *domain.Branch) error {
	branch.ID = fmt.Sprintf("branch-%d", len(f.branches)+1)
	f.branches[branch.ID] = branch
	return nil
}

func (f *fakeBranchRepo) Update(_ context.Context, branch *domain.Branch) error {
	if _, ok := f.branches[branch.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.branches[branch.ID] = branch
	return nil
}

func (f *fakeBranchRepo) GetByID(_ context.Context, id string) (*domain.Branch, error) {
	branch, ok := f.branches[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return branch, nil
}

func (f *fakeBranchRepo) List(_ context.Context) ([]domain.Branch, error) {
	out := make([]domain.Branch, 0, len(f.branches))
	for _, branch := range f.branches {
		out = append(out, *branch)
	}
	return out, nil
}

type fakeEquipmentRepo struct {
	items map[string]*domain.Equipment
}

func (f *fakeEquipmentRepo) Create(_ context.Context, eq *domain.Equipment) error {
	if f.items == nil {
		f.items = map[string]*domain.Equipment{}
	}
	eq.ID = fmt.Sprintf("eq-%d", len(f.items)+1)
	f.items[eq.ID] = eq
	return nil
}

func (f *fakeEquipmentRepo) Update(_ context.Context, eq *domain.Equipment) error {
	if _, ok := f.items[eq.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.items[eq.ID] = eq
	return nil
}

func (f *fakeEquipmentRepo) GetByID(_ context.Context, id string) (*domain.Equipment, error) {
	eq, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return eq, nil
}

func (f *fakeEquipmentRepo) ListByBranch(_ context.Context, branchID string) ([]domain.Equipment, error) {
	out := []domain.Equipment{}
	for _, eq := range f.items {
		if eq.BranchID == branchID {
			out = append(out, *eq)
		}
	}
	return out, nil
}

type fakeTechnician struct {
	profile  domain.TechnicianProfile
	skills   []domain.TechnicianSkill
	workload int
}

type fakeTechnicianRepo struct {
	technicians map[string]*fakeTechnician
}

func newFakeTechnicianRepo(technicians ...*fakeTechnician) *fakeTechnicianRepo {
	repo := &fakeTechnicianRepo{technicians: map[string]*fakeTechnician{}}
	for _, tech := range technicians {
		repo.technicians[tech.profile.ID] = tech
	}
	return repo
}

func (f *fakeTechnicianRepo) Create(_ context.Context, profile *domain.TechnicianProfile) error {
	profile.ID = fmt.Sprintf("tech-%d", len(f.technicians)+1)
	f.technicians[profile.ID] = &fakeTechnician{profile: *profile}
	return nil
}

func (f *fakeTechnicianRepo) Update(_ context.Context, profile *domain.TechnicianProfile) error {
	tech, ok := f.technicians[profile.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	tech.profile = *profile
	return nil
}

func (f *fakeTechnicianRepo) GetByID(_ context.Context, id string) (*domain.TechnicianProfile, error) {
	tech, ok := f.technicians[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := tech.profile
	return &clone, nil
}

func (f *fakeTechnicianRepo) List(_ context.Context, _ repository.TechnicianFilter) ([]domain.TechnicianProfile, error) {
	out := make([]domain.TechnicianProfile, 0, len(f.technicians))
	for _, tech := range f.technicians {
		out = append(out, tech.profile)
	}
	return out, nil
}

func (f *fakeTechnicianRepo) ListForBranch(_ context.Context, branchID string) ([]domain.TechnicianProfile, error) {
	out := []domain.TechnicianProfile{}
	for _, tech := range f.technicians {
		if !tech.profile.Active {
			continue
		}
		if tech.profile.BranchID != nil && *tech.profile.BranchID != branchID {
			continue
		}
		out = append(out, tech.profile)
	}
	return out, nil
}

func (f *fakeTechnicianRepo) ListSkills(_ context.Context, profileID string) ([]domain.TechnicianSkill, error) {
	tech, ok := f.technicians[profileID]
	if !ok {
		return nil, nil
	}
	return tech.skills, nil
}

func (f *fakeTechnicianRepo) ReplaceSkills(_ context.Context, profileID string, skills []domain.TechnicianSkill) error {
	tech, ok := f.technicians[profileID]
	if !ok {
		return pgx.ErrNoRows
	}
	tech.skills = skills
	return nil
}

func (f *fakeTechnicianRepo) CountActiveAssignments(_ context.Context, profileID string) (int, error) {
	tech, ok := f.technicians[profileID]
	if !ok {
		return 0, nil
	}
	return tech.workload, nil
}

type fakeVendorRepo struct {
	vendors map[string]*domain.Vendor
}

func newFakeVendorRepo(vendors ...*domain.Vendor) *fakeVendorRepo {
	repo := &fakeVendorRepo{vendors: map[string]*domain.Vendor{}}
	for _, vendor := range vendors {
		repo.vendors[vendor.ID] = vendor
	}
	return repo
}

func (f *fakeVendorRepo) Create(_ context.Context, vendor *domain.Vendor) error {
	vendor.ID = fmt.Sprintf("vendor-%d", len(f.vendors)+1)
	f.vendors[vendor.ID] = vendor
	return nil
}

func (f *fakeVendorRepo) Update(_ context.Context, vendor *domain.Vendor) error {
	if _, ok := f.vendors[vendor.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.vendors[vendor.ID] = vendor
	return nil
}

func (f *fakeVendorRepo) GetByID(_ context.Context, id string) (*domain.Vendor, error) {
	vendor, ok := f.vendors[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return vendor, nil
}

func (f *fakeVendorRepo) List(_ context.Context) ([]domain.Vendor, error) {
	out := make([]domain.Vendor, 0, len(f.vendors))
	for _, vendor := range f.vendors {
		out = append(out, *vendor)
	}
	return out, nil
}
