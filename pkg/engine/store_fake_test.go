package engine

import (
	"context"
	"sort"
	"time"

	"github.com/openvolunteering/postulate/pkg/calendar"
	"github.com/openvolunteering/postulate/pkg/model"
)

// fakeStore implements Store over maps for tests. Reads hand out copies
// so engine-side mutations only become visible through an explicit
// update, matching how a real store behaves across a rolled back
// transaction. failOn injects a storage fault into one named operation.
type fakeStore struct {
	works        map[string]*model.Work
	postulations map[string]*model.Postulation
	instances    map[string]*model.WorkInstance
	sessions     map[string]*model.WorkSession
	prefs        map[string][]calendar.HourBlock

	failOn map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		works:        make(map[string]*model.Work),
		postulations: make(map[string]*model.Postulation),
		instances:    make(map[string]*model.WorkInstance),
		sessions:     make(map[string]*model.WorkSession),
		prefs:        make(map[string][]calendar.HourBlock),
		failOn:       make(map[string]error),
	}
}

func (f *fakeStore) fail(op string) error {
	return f.failOn[op]
}

func copyWork(w *model.Work) *model.Work {
	c := *w
	c.HourBlocks = append([]calendar.HourBlock(nil), w.HourBlocks...)
	c.Tags = append([]string(nil), w.Tags...)
	return &c
}

func copyPostulation(p *model.Postulation) *model.Postulation {
	c := *p
	return &c
}

func (f *fakeStore) GetWork(ctx context.Context, id string) (*model.Work, error) {
	if err := f.fail("GetWork"); err != nil {
		return nil, err
	}
	w, ok := f.works[id]
	if !ok {
		return nil, nil
	}
	return copyWork(w), nil
}

func (f *fakeStore) GetWorkByName(ctx context.Context, supplierID, name string) (*model.Work, error) {
	if err := f.fail("GetWorkByName"); err != nil {
		return nil, err
	}
	for _, w := range f.works {
		if w.SupplierID == supplierID && w.Name == name {
			return copyWork(w), nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListWorksOverlapping(ctx context.Context, r model.DateRange) ([]model.Work, error) {
	if err := f.fail("ListWorksOverlapping"); err != nil {
		return nil, err
	}
	var out []model.Work
	for _, w := range f.works {
		if w.Window().Overlaps(r) {
			out = append(out, *copyWork(w))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) InsertWork(ctx context.Context, w *model.Work) error {
	if err := f.fail("InsertWork"); err != nil {
		return err
	}
	f.works[w.ID] = copyWork(w)
	return nil
}

func (f *fakeStore) UpdateWork(ctx context.Context, w *model.Work) error {
	if err := f.fail("UpdateWork"); err != nil {
		return err
	}
	f.works[w.ID] = copyWork(w)
	return nil
}

func (f *fakeStore) DeleteWork(ctx context.Context, id string) error {
	delete(f.works, id)
	return nil
}

func (f *fakeStore) GetPostulation(ctx context.Context, id string) (*model.Postulation, error) {
	if err := f.fail("GetPostulation"); err != nil {
		return nil, err
	}
	p, ok := f.postulations[id]
	if !ok {
		return nil, nil
	}
	return copyPostulation(p), nil
}

func (f *fakeStore) FindPostulation(ctx context.Context, volunteerID, workID string) (*model.Postulation, error) {
	if err := f.fail("FindPostulation"); err != nil {
		return nil, err
	}
	for _, p := range f.postulations {
		if p.VolunteerID == volunteerID && p.WorkID == workID {
			return copyPostulation(p), nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListActiveOverlapping(ctx context.Context, volunteerID string, r model.DateRange) ([]model.Postulation, error) {
	if err := f.fail("ListActiveOverlapping"); err != nil {
		return nil, err
	}
	var out []model.Postulation
	for _, p := range f.postulations {
		if p.VolunteerID == volunteerID && p.Active() && p.Range().Overlaps(r) {
			out = append(out, *copyPostulation(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListVolunteerPostulations(ctx context.Context, volunteerID string) ([]model.Postulation, error) {
	var out []model.Postulation
	for _, p := range f.postulations {
		if p.VolunteerID == volunteerID {
			out = append(out, *copyPostulation(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListWorkPostulationsByStatus(ctx context.Context, workID string, status model.PostulationStatus) ([]model.Postulation, error) {
	if err := f.fail("ListWorkPostulationsByStatus"); err != nil {
		return nil, err
	}
	var out []model.Postulation
	for _, p := range f.postulations {
		if p.WorkID == workID && p.Status == status {
			out = append(out, *copyPostulation(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListExpiredPending(ctx context.Context, before time.Time) ([]model.Postulation, error) {
	if err := f.fail("ListExpiredPending"); err != nil {
		return nil, err
	}
	var out []model.Postulation
	for _, p := range f.postulations {
		if p.Status == model.PostulationPending && p.EndDate.Before(before) {
			out = append(out, *copyPostulation(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) InsertPostulation(ctx context.Context, p *model.Postulation) error {
	if err := f.fail("InsertPostulation"); err != nil {
		return err
	}
	f.postulations[p.ID] = copyPostulation(p)
	return nil
}

func (f *fakeStore) UpdatePostulation(ctx context.Context, p *model.Postulation) error {
	if err := f.fail("UpdatePostulation"); err != nil {
		return err
	}
	f.postulations[p.ID] = copyPostulation(p)
	return nil
}

func (f *fakeStore) DeletePostulation(ctx context.Context, id string) error {
	delete(f.postulations, id)
	return nil
}

func (f *fakeStore) DeleteWorkPostulations(ctx context.Context, workID string) error {
	for id, p := range f.postulations {
		if p.WorkID == workID {
			delete(f.postulations, id)
		}
	}
	return nil
}

func (f *fakeStore) GetInstance(ctx context.Context, id string) (*model.WorkInstance, error) {
	if err := f.fail("GetInstance"); err != nil {
		return nil, err
	}
	inst, ok := f.instances[id]
	if !ok {
		return nil, nil
	}
	c := *inst
	return &c, nil
}

func (f *fakeStore) CountWorkInstances(ctx context.Context, workID string) (int, error) {
	if err := f.fail("CountWorkInstances"); err != nil {
		return 0, err
	}
	count := 0
	for _, inst := range f.instances {
		if inst.WorkID == workID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ListWorkInstances(ctx context.Context, workID string) ([]model.WorkInstance, error) {
	var out []model.WorkInstance
	for _, inst := range f.instances {
		if inst.WorkID == workID {
			out = append(out, *inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListVolunteerInstances(ctx context.Context, volunteerID string) ([]model.WorkInstance, error) {
	var out []model.WorkInstance
	for _, inst := range f.instances {
		if inst.VolunteerID == volunteerID {
			out = append(out, *inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) InsertInstance(ctx context.Context, inst *model.WorkInstance) error {
	if err := f.fail("InsertInstance"); err != nil {
		return err
	}
	c := *inst
	f.instances[inst.ID] = &c
	return nil
}

func (f *fakeStore) DeleteWorkInstances(ctx context.Context, workID string) error {
	for id, inst := range f.instances {
		if inst.WorkID == workID {
			delete(f.instances, id)
		}
	}
	return nil
}

func (f *fakeStore) GetSession(ctx context.Context, id string) (*model.WorkSession, error) {
	if err := f.fail("GetSession"); err != nil {
		return nil, err
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (f *fakeStore) InsertSessions(ctx context.Context, sessions []model.WorkSession) error {
	if err := f.fail("InsertSessions"); err != nil {
		return err
	}
	for _, s := range sessions {
		c := s
		f.sessions[s.ID] = &c
	}
	return nil
}

func (f *fakeStore) UpdateSessionStatus(ctx context.Context, id string, status model.SessionStatus) error {
	if err := f.fail("UpdateSessionStatus"); err != nil {
		return err
	}
	if s, ok := f.sessions[id]; ok {
		s.Status = status
	}
	return nil
}

func (f *fakeStore) ListInstanceSessions(ctx context.Context, instanceID string) ([]model.WorkSession, error) {
	var out []model.WorkSession
	for _, s := range f.sessions {
		if s.InstanceID == instanceID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeStore) ListWorkSessionsAt(ctx context.Context, workID string, date time.Time, start calendar.TimeOfDay) ([]model.WorkSession, error) {
	var out []model.WorkSession
	for _, s := range f.sessions {
		inst, ok := f.instances[s.InstanceID]
		if !ok || inst.WorkID != workID {
			continue
		}
		if calendar.SameDate(s.Date, date) && s.Start == start {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) DeleteWorkSessions(ctx context.Context, workID string) error {
	for id, s := range f.sessions {
		inst, ok := f.instances[s.InstanceID]
		if ok && inst.WorkID == workID {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeStore) GetPreferences(ctx context.Context, volunteerID string) ([]calendar.HourBlock, error) {
	if err := f.fail("GetPreferences"); err != nil {
		return nil, err
	}
	return append([]calendar.HourBlock(nil), f.prefs[volunteerID]...), nil
}

func (f *fakeStore) ReplacePreferences(ctx context.Context, volunteerID string, blocks []calendar.HourBlock) error {
	if err := f.fail("ReplacePreferences"); err != nil {
		return err
	}
	f.prefs[volunteerID] = append([]calendar.HourBlock(nil), blocks...)
	return nil
}

// RunInTx snapshots the maps and restores them when fn fails, imitating a
// rolled back transaction.
func (f *fakeStore) RunInTx(ctx context.Context, fn func(Store) error) error {
	works := make(map[string]*model.Work, len(f.works))
	for id, w := range f.works {
		works[id] = copyWork(w)
	}
	postulations := make(map[string]*model.Postulation, len(f.postulations))
	for id, p := range f.postulations {
		postulations[id] = copyPostulation(p)
	}
	instances := make(map[string]*model.WorkInstance, len(f.instances))
	for id, inst := range f.instances {
		c := *inst
		instances[id] = &c
	}
	sessions := make(map[string]*model.WorkSession, len(f.sessions))
	for id, s := range f.sessions {
		c := *s
		sessions[id] = &c
	}

	if err := fn(f); err != nil {
		f.works = works
		f.postulations = postulations
		f.instances = instances
		f.sessions = sessions
		return err
	}
	return nil
}
