package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jose-valero/scrim-bot/internal/domain"
	"github.com/jose-valero/scrim-bot/internal/infra/storage"
)

// ---------- fakes ----------

type fakeScrimStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]storage.Scrim
}

func newFakeScrimStore() *fakeScrimStore {
	return &fakeScrimStore{rows: make(map[int64]storage.Scrim)}
}

func (f *fakeScrimStore) Create(ctx context.Context, s storage.Scrim) (storage.Scrim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s.ID = f.nextID
	f.rows[s.ID] = s
	return s, nil
}

func (f *fakeScrimStore) Get(ctx context.Context, id int64, guildID string) (storage.Scrim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok || s.GuildID != guildID {
		return storage.Scrim{}, domain.ErrScrimNotFound
	}
	return s, nil
}

func (f *fakeScrimStore) ListAll(ctx context.Context) ([]storage.Scrim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.Scrim
	for _, s := range f.rows {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeScrimStore) AddVote(ctx context.Context, id int64, side domain.Side, memberID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.rows[id]
	voters := s.VotersFor(side)
	for _, v := range voters {
		if v == memberID {
			return domain.ErrDuplicateVote
		}
	}
	if len(voters) >= s.PerTeam {
		return domain.ErrDuplicateVote
	}
	if side == domain.SideHome {
		s.HomeVoterIDs = append(s.HomeVoterIDs, memberID)
	} else {
		s.AwayVoterIDs = append(s.AwayVoterIDs, memberID)
	}
	f.rows[id] = s
	return nil
}

func (f *fakeScrimStore) RemoveVote(ctx context.Context, id int64, side domain.Side, memberID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.rows[id]
	voters := s.VotersFor(side)
	idx := -1
	for i, v := range voters {
		if v == memberID {
			idx = i
		}
	}
	if idx < 0 {
		return domain.ErrNotVoted
	}
	voters = append(voters[:idx], voters[idx+1:]...)
	if side == domain.SideHome {
		s.HomeVoterIDs = voters
	} else {
		s.AwayVoterIDs = voters
	}
	f.rows[id] = s
	return nil
}

func (f *fakeScrimStore) AddForceConfirmVote(ctx context.Context, id int64, memberID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.rows[id]
	for _, v := range s.AwayConfirmAnywaysVoterIDs {
		if v == memberID {
			return domain.ErrDuplicateVote
		}
	}
	s.AwayConfirmAnywaysVoterIDs = append(s.AwayConfirmAnywaysVoterIDs, memberID)
	f.rows[id] = s
	return nil
}

func (f *fakeScrimStore) SetStatus(ctx context.Context, id int64, status domain.ScrimStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.rows[id]
	s.Status = status
	f.rows[id] = s
	return nil
}

func (f *fakeScrimStore) Patch(ctx context.Context, id int64, p storage.ScrimPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.rows[id]
	if p.ScheduledFor != nil {
		s.ScheduledFor = *p.ScheduledFor
	}
	if p.HomeMessageID != nil {
		s.HomeMessageID = *p.HomeMessageID
	}
	if p.AwayMessageID != nil {
		s.AwayMessageID = p.AwayMessageID
	}
	if p.AwayConfirmAnywaysMessageID != nil {
		s.AwayConfirmAnywaysMessageID = p.AwayConfirmAnywaysMessageID
	}
	if p.ScrimChatID != nil {
		s.ScrimChatID = p.ScrimChatID
	}
	f.rows[id] = s
	return nil
}

func (f *fakeScrimStore) SetTimerIDs(ctx context.Context, id int64, scheduled, reminder, del *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.rows[id]
	s.ScheduledTimerID = scheduled
	s.ReminderTimerID = reminder
	s.DeleteTimerID = del
	f.rows[id] = s
	return nil
}

func (f *fakeScrimStore) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeScrimStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeTeamStore struct {
	teams map[int64]storage.Team
}

func (f *fakeTeamStore) Get(ctx context.Context, id int64, guildID string) (storage.Team, error) {
	t, ok := f.teams[id]
	if !ok || t.GuildID != guildID {
		return storage.Team{}, domain.ErrTeamNotFound
	}
	return t, nil
}

type scheduledTimer struct {
	event string
	due   time.Time
}

type fakeTimers struct {
	mu        sync.Mutex
	nextID    int64
	scheduled map[int64]scheduledTimer
	cancelled []int64
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{scheduled: make(map[int64]scheduledTimer)}
}

func (f *fakeTimers) Schedule(ctx context.Context, due time.Time, event string, payload any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.scheduled[f.nextID] = scheduledTimer{event: event, due: due}
	return f.nextID, nil
}

func (f *fakeTimers) Cancel(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scheduled, id)
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeTimers) byEvent(event string) []scheduledTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []scheduledTimer
	for _, t := range f.scheduled {
		if t.event == event {
			out = append(out, t)
		}
	}
	return out
}

type fakePanels struct {
	failPublishAway  bool
	failPublishForce bool
	failPublishHome  bool
	homeGone         bool

	homePublished, awayPublished, forcePublished int
	homeRefreshed, awayRefreshed, forceRefreshed int
	notStarted, reminders, forceDeleted          int
	cancelReasons                                []string
	lastView                                     PanelView
}

var errPublishFailed = errors.New("publish failed")

func (f *fakePanels) PublishHome(ctx context.Context, v PanelView) (string, error) {
	if f.failPublishHome {
		return "", errPublishFailed
	}
	f.homePublished++
	f.lastView = v
	return "home-msg", nil
}

func (f *fakePanels) PublishAway(ctx context.Context, v PanelView) (string, error) {
	if f.failPublishAway {
		return "", errPublishFailed
	}
	f.awayPublished++
	f.lastView = v
	return "away-msg", nil
}

func (f *fakePanels) PublishForceConfirm(ctx context.Context, v PanelView) (string, error) {
	if f.failPublishForce {
		return "", errPublishFailed
	}
	f.forcePublished++
	f.lastView = v
	return "force-msg", nil
}

func (f *fakePanels) RefreshHome(ctx context.Context, v PanelView) error {
	if f.homeGone {
		return domain.ErrMessageGone
	}
	f.homeRefreshed++
	f.lastView = v
	return nil
}

func (f *fakePanels) RefreshAway(ctx context.Context, v PanelView) error {
	f.awayRefreshed++
	f.lastView = v
	return nil
}

func (f *fakePanels) RefreshForceConfirm(ctx context.Context, v PanelView) error {
	f.forceRefreshed++
	f.lastView = v
	return nil
}

func (f *fakePanels) AnnounceCancelled(ctx context.Context, v PanelView, reason string) {
	f.cancelReasons = append(f.cancelReasons, reason)
}

func (f *fakePanels) AnnounceNotStarted(ctx context.Context, v PanelView) error {
	if f.homeGone {
		return domain.ErrMessageGone
	}
	f.notStarted++
	return nil
}

func (f *fakePanels) AnnounceReminder(ctx context.Context, v PanelView) error {
	if f.homeGone {
		return domain.ErrMessageGone
	}
	f.reminders++
	return nil
}

func (f *fakePanels) DeleteForceConfirmPrompt(ctx context.Context, v PanelView) {
	f.forceDeleted++
}

type fakeRooms struct {
	failCreate bool
	created    int
	deleted    []string
}

func (f *fakeRooms) CreateMatchChannel(ctx context.Context, v PanelView) (string, error) {
	if f.failCreate {
		return "", errPublishFailed
	}
	f.created++
	return "chat-123", nil
}

func (f *fakeRooms) DeleteChannel(ctx context.Context, channelID string) {
	f.deleted = append(f.deleted, channelID)
}

// ---------- fixture ----------

const guild = "g1"

type fixture struct {
	scrims  *fakeScrimStore
	teams   *fakeTeamStore
	timers  *fakeTimers
	panels  *fakePanels
	rooms   *fakeRooms
	clock   *clockwork.FakeClock
	svc     *ScrimService
	confirm *ConfirmService
	events  *EventService
}

func strptr(s string) *string { return &s }

func team(id int64, name string, members ...string) storage.Team {
	t := storage.Team{
		ID:            id,
		GuildID:       guild,
		Name:          name,
		TextChannelID: strptr("ch-" + name),
		CategoryID:    strptr("cat-" + name),
	}
	for i, m := range members {
		t.Members = append(t.Members, storage.TeamMember{MemberID: m, IsCaptain: i == 0})
	}
	return t
}

func newFixture() *fixture {
	f := &fixture{
		scrims: newFakeScrimStore(),
		teams: &fakeTeamStore{teams: map[int64]storage.Team{
			1: team(1, "tigres", "h1", "h2", "h3", "h4"),
			2: team(2, "pumas", "a1", "a2", "a3", "a4"),
		}},
		timers: newFakeTimers(),
		panels: &fakePanels{},
		rooms:  &fakeRooms{},
		clock:  clockwork.NewFakeClock(),
	}
	f.svc = NewScrimService(f.scrims, f.teams, f.timers, f.panels, f.rooms, NewRegistry(), f.clock)
	f.confirm = NewConfirmService(f.svc)
	f.events = NewEventService(f.svc)
	return f
}

func (f *fixture) create(t *testing.T, perTeam int, in time.Duration) storage.Scrim {
	t.Helper()
	sc, err := f.svc.Create(context.Background(), guild, "creator", 1, 2, perTeam, f.clock.Now().Add(in))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return sc
}

// ---------- creación ----------

func TestCreatePublishesPanelAndSchedulesTimers(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 2, 48*time.Hour)

	if f.panels.homePublished != 1 {
		t.Fatalf("home panel published %d times", f.panels.homePublished)
	}
	if sc.HomeMessageID != "home-msg" {
		t.Fatalf("home message id = %q", sc.HomeMessageID)
	}
	if sc.Status != domain.StatusPendingHost {
		t.Fatalf("status = %s", sc.Status)
	}
	if got := f.timers.byEvent(EventScrimScheduled); len(got) != 1 || !got[0].due.Equal(sc.ScheduledFor) {
		t.Fatalf("scheduled timer = %+v", got)
	}
	rem := f.timers.byEvent(EventScrimReminder)
	if len(rem) != 1 || !rem[0].due.Equal(sc.ScheduledFor.Add(-30*time.Minute)) {
		t.Fatalf("reminder timer = %+v", rem)
	}
}

func TestCreateSkipsReminderForShortNotice(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 2, 2*time.Hour)

	if rem := f.timers.byEvent(EventScrimReminder); len(rem) != 0 {
		t.Fatalf("short-notice scrim got a reminder timer: %+v", rem)
	}
	if sc.ReminderTimerID != nil {
		t.Fatal("reminder timer id set for short-notice scrim")
	}
}

func TestCreateRollsBackRowWhenPanelFails(t *testing.T) {
	f := newFixture()
	f.panels.failPublishHome = true

	_, err := f.svc.Create(context.Background(), guild, "creator", 1, 2, 2, f.clock.Now().Add(time.Hour))
	if err == nil {
		t.Fatal("expected error")
	}
	if f.scrims.count() != 0 {
		t.Fatal("scrim row survived a failed panel publish")
	}
}

func TestCreateRequiresHomeTextChannel(t *testing.T) {
	f := newFixture()
	home := f.teams.teams[1]
	home.TextChannelID = nil
	f.teams.teams[1] = home

	_, err := f.svc.Create(context.Background(), guild, "creator", 1, 2, 2, f.clock.Now().Add(time.Hour))
	if !errors.Is(err, domain.ErrNoHomeChannel) {
		t.Fatalf("err = %v", err)
	}
	if f.scrims.count() != 0 {
		t.Fatal("row created without a home channel")
	}
}

// ---------- flujo de confirmación ----------

func TestHomeQuorumMovesToPendingAway(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 2, time.Hour)
	ctx := context.Background()

	sc2, err := f.confirm.VoteHome(ctx, guild, sc.ID, "h1")
	if err != nil {
		t.Fatalf("vote 1: %v", err)
	}
	if sc2.Status != domain.StatusPendingHost {
		t.Fatalf("status after 1/2 votes = %s", sc2.Status)
	}

	sc2, err = f.confirm.VoteHome(ctx, guild, sc.ID, "h2")
	if err != nil {
		t.Fatalf("vote 2: %v", err)
	}
	if sc2.Status != domain.StatusPendingAway {
		t.Fatalf("status after quorum = %s", sc2.Status)
	}
	if f.panels.awayPublished != 1 {
		t.Fatalf("away panel published %d times", f.panels.awayPublished)
	}
	if sc2.AwayMessageID == nil || *sc2.AwayMessageID != "away-msg" {
		t.Fatalf("away message id = %v", sc2.AwayMessageID)
	}
}

func TestDuplicateVoteRejected(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 3, time.Hour)
	ctx := context.Background()

	if _, err := f.confirm.VoteHome(ctx, guild, sc.ID, "h1"); err != nil {
		t.Fatal(err)
	}
	_, err := f.confirm.VoteHome(ctx, guild, sc.ID, "h1")
	if !errors.Is(err, domain.ErrDuplicateVote) {
		t.Fatalf("err = %v", err)
	}
	got, _ := f.scrims.Get(ctx, sc.ID, guild)
	if len(got.HomeVoterIDs) != 1 {
		t.Fatalf("voters = %v", got.HomeVoterIDs)
	}
}

func TestUnvoteWithoutVoteRejected(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 2, time.Hour)

	_, err := f.confirm.UnvoteHome(context.Background(), guild, sc.ID, "h1")
	if !errors.Is(err, domain.ErrNotVoted) {
		t.Fatalf("err = %v", err)
	}
}

func TestAwayQuorumSchedulesScrim(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 2, time.Hour)
	ctx := context.Background()

	f.confirm.VoteHome(ctx, guild, sc.ID, "h1")
	f.confirm.VoteHome(ctx, guild, sc.ID, "h2")
	f.confirm.VoteAway(ctx, guild, sc.ID, "a1")
	sc2, err := f.confirm.VoteAway(ctx, guild, sc.ID, "a2")
	if err != nil {
		t.Fatal(err)
	}
	if sc2.Status != domain.StatusScheduled {
		t.Fatalf("status = %s", sc2.Status)
	}
}

func TestVoteAfterQuorumRejected(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 1, time.Hour)
	ctx := context.Background()

	f.confirm.VoteHome(ctx, guild, sc.ID, "h1")
	f.confirm.VoteAway(ctx, guild, sc.ID, "a1")

	_, err := f.confirm.VoteAway(ctx, guild, sc.ID, "a2")
	if !errors.Is(err, domain.ErrQuorumReached) {
		t.Fatalf("err = %v", err)
	}
}

func TestAwayPanelFailureCancelsScrim(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 1, time.Hour)
	ctx := context.Background()

	f.panels.failPublishAway = true
	_, err := f.confirm.VoteHome(ctx, guild, sc.ID, "h1")
	if err == nil {
		t.Fatal("expected error")
	}
	if f.scrims.count() != 0 {
		t.Fatal("scrim survived a failed away publish")
	}
	if len(f.panels.cancelReasons) != 1 {
		t.Fatalf("cancel announced %d times", len(f.panels.cancelReasons))
	}
}

// ---------- force confirm ----------

func TestForceConfirmGuards(t *testing.T) {
	ctx := context.Background()

	// per_team < 2
	f := newFixture()
	sc := f.create(t, 1, 10*time.Minute)
	f.confirm.VoteHome(ctx, guild, sc.ID, "h1")
	if _, err := f.confirm.OpenForceConfirm(ctx, guild, sc.ID); !errors.Is(err, domain.ErrForceConfirmPerTeam) {
		t.Fatalf("per_team guard: %v", err)
	}

	// sin votos regulares suficientes
	f = newFixture()
	sc = f.create(t, 4, 10*time.Minute)
	f.confirm.VoteHome(ctx, guild, sc.ID, "h1")
	f.confirm.VoteHome(ctx, guild, sc.ID, "h2")
	f.confirm.VoteHome(ctx, guild, sc.ID, "h3")
	f.confirm.VoteHome(ctx, guild, sc.ID, "h4")
	f.confirm.VoteAway(ctx, guild, sc.ID, "a1")
	if _, err := f.confirm.OpenForceConfirm(ctx, guild, sc.ID); !errors.Is(err, domain.ErrForceConfirmTooFewVotes) {
		t.Fatalf("votes guard: %v", err)
	}

	// fuera de la ventana de 30 minutos
	f = newFixture()
	sc = f.create(t, 4, 2*time.Hour)
	f.confirm.VoteHome(ctx, guild, sc.ID, "h1")
	f.confirm.VoteHome(ctx, guild, sc.ID, "h2")
	f.confirm.VoteHome(ctx, guild, sc.ID, "h3")
	f.confirm.VoteHome(ctx, guild, sc.ID, "h4")
	f.confirm.VoteAway(ctx, guild, sc.ID, "a1")
	f.confirm.VoteAway(ctx, guild, sc.ID, "a2")
	if _, err := f.confirm.OpenForceConfirm(ctx, guild, sc.ID); !errors.Is(err, domain.ErrForceConfirmTooEarly) {
		t.Fatalf("window guard: %v", err)
	}
}

func TestForceConfirmSingleLivePrompt(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 4, 10*time.Minute)
	ctx := context.Background()

	for _, m := range []string{"h1", "h2", "h3", "h4"} {
		f.confirm.VoteHome(ctx, guild, sc.ID, m)
	}
	f.confirm.VoteAway(ctx, guild, sc.ID, "a1")
	f.confirm.VoteAway(ctx, guild, sc.ID, "a2")

	if _, err := f.confirm.OpenForceConfirm(ctx, guild, sc.ID); err != nil {
		t.Fatalf("first open: %v", err)
	}

	_, err := f.confirm.OpenForceConfirm(ctx, guild, sc.ID)
	var exists *domain.ForceConfirmExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("second open: %v", err)
	}
	if exists.MessageID != "force-msg" {
		t.Fatalf("existing prompt message = %q", exists.MessageID)
	}
	if f.panels.forcePublished != 1 {
		t.Fatalf("force panel published %d times", f.panels.forcePublished)
	}
}

func TestForceConfirmPassesAtHalfQuorum(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 4, 10*time.Minute)
	ctx := context.Background()

	for _, m := range []string{"h1", "h2", "h3", "h4"} {
		f.confirm.VoteHome(ctx, guild, sc.ID, m)
	}
	f.confirm.VoteAway(ctx, guild, sc.ID, "a1")
	f.confirm.VoteAway(ctx, guild, sc.ID, "a2")
	f.confirm.OpenForceConfirm(ctx, guild, sc.ID)

	sc2, err := f.confirm.VoteForceConfirm(ctx, guild, sc.ID, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if sc2.Status != domain.StatusPendingAway {
		t.Fatalf("status after 1/2 force votes = %s", sc2.Status)
	}

	sc2, err = f.confirm.VoteForceConfirm(ctx, guild, sc.ID, "a2")
	if err != nil {
		t.Fatal(err)
	}
	if sc2.Status != domain.StatusScheduled {
		t.Fatalf("status after force quorum = %s", sc2.Status)
	}
	if f.panels.forceDeleted != 1 {
		t.Fatalf("force prompt deleted %d times", f.panels.forceDeleted)
	}
}

// ---------- cancelación ----------

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 2, 48*time.Hour)
	ctx := context.Background()

	if err := f.svc.Cancel(ctx, guild, sc.ID, "nos bajamos"); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if f.scrims.count() != 0 {
		t.Fatal("row survived cancel")
	}
	if len(f.timers.scheduled) != 0 {
		t.Fatalf("timers survived cancel: %v", f.timers.scheduled)
	}
	if len(f.panels.cancelReasons) != 1 {
		t.Fatalf("cancel announced %d times", len(f.panels.cancelReasons))
	}

	// la segunda cancelación es un no-op limpio
	if err := f.svc.Cancel(ctx, guild, sc.ID, "de nuevo"); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if len(f.panels.cancelReasons) != 1 {
		t.Fatal("second cancel announced again")
	}
}

func TestCancelTearsDownChatAndPrompt(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 2, time.Hour)
	ctx := context.Background()

	chat := "chat-xyz"
	force := "force-msg"
	f.scrims.Patch(ctx, sc.ID, storage.ScrimPatch{ScrimChatID: &chat, AwayConfirmAnywaysMessageID: &force})

	if err := f.svc.Cancel(ctx, guild, sc.ID, "limpieza"); err != nil {
		t.Fatal(err)
	}
	if len(f.rooms.deleted) != 1 || f.rooms.deleted[0] != chat {
		t.Fatalf("deleted channels = %v", f.rooms.deleted)
	}
	if f.panels.forceDeleted != 1 {
		t.Fatalf("force prompt deleted %d times", f.panels.forceDeleted)
	}
}

// ---------- reschedule ----------

func TestRescheduleRepointsTimers(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 2, 48*time.Hour)
	ctx := context.Background()

	oldSched := *sc.ScheduledTimerID
	newWhen := f.clock.Now().Add(72 * time.Hour)

	sc2, err := f.svc.Reschedule(ctx, guild, sc.ID, newWhen)
	if err != nil {
		t.Fatal(err)
	}
	if !sc2.ScheduledFor.Equal(newWhen) {
		t.Fatalf("scheduled_for = %s", sc2.ScheduledFor)
	}

	found := false
	for _, id := range f.timers.cancelled {
		if id == oldSched {
			found = true
		}
	}
	if !found {
		t.Fatal("old scheduled timer was not cancelled")
	}
	got := f.timers.byEvent(EventScrimScheduled)
	if len(got) != 1 || !got[0].due.Equal(newWhen) {
		t.Fatalf("scheduled timers = %+v", got)
	}
	rem := f.timers.byEvent(EventScrimReminder)
	if len(rem) != 1 || !rem[0].due.Equal(newWhen.Add(-30*time.Minute)) {
		t.Fatalf("reminder timers = %+v", rem)
	}
}

// ---------- timer handlers ----------

func schedulePayload(sc storage.Scrim) []byte {
	return []byte(`{"scrim_id":` + strconv.FormatInt(sc.ID, 10) + `,"guild_id":"` + sc.GuildID + `"}`)
}

func confirmFully(t *testing.T, f *fixture, sc storage.Scrim) {
	t.Helper()
	ctx := context.Background()
	f.confirm.VoteHome(ctx, guild, sc.ID, "h1")
	if _, err := f.confirm.VoteHome(ctx, guild, sc.ID, "h2"); err != nil {
		t.Fatal(err)
	}
	f.confirm.VoteAway(ctx, guild, sc.ID, "a1")
	if _, err := f.confirm.VoteAway(ctx, guild, sc.ID, "a2"); err != nil {
		t.Fatal(err)
	}
}

func TestScheduledTimerCreatesMatchChannel(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 2, time.Hour)
	confirmFully(t, f, sc)

	f.clock.Advance(time.Hour)
	f.events.handleScheduled(context.Background(), schedulePayload(sc))

	if f.rooms.created != 1 {
		t.Fatalf("match channel created %d times", f.rooms.created)
	}
	got, err := f.scrims.Get(context.Background(), sc.ID, guild)
	if err != nil {
		t.Fatal(err)
	}
	if got.ScrimChatID == nil || *got.ScrimChatID != "chat-123" {
		t.Fatalf("scrim chat id = %v", got.ScrimChatID)
	}
	del := f.timers.byEvent(EventScrimDelete)
	if len(del) != 1 || !del[0].due.Equal(f.clock.Now().Add(4*time.Hour)) {
		t.Fatalf("delete timer = %+v", del)
	}
}

func TestScheduledTimerOnUnconfirmedScrimKeepsRow(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 2, time.Hour)

	f.clock.Advance(time.Hour)
	f.events.handleScheduled(context.Background(), schedulePayload(sc))

	if f.panels.notStarted != 1 {
		t.Fatalf("not-started announced %d times", f.panels.notStarted)
	}
	if f.rooms.created != 0 {
		t.Fatal("match channel created for unconfirmed scrim")
	}
	if f.scrims.count() != 1 {
		t.Fatal("row of unconfirmed scrim was deleted")
	}
}

func TestScheduledTimerForMissingScrimIsNoop(t *testing.T) {
	f := newFixture()
	f.events.handleScheduled(context.Background(), []byte(`{"scrim_id":99,"guild_id":"g1"}`))

	if f.rooms.created != 0 || f.panels.notStarted != 0 || len(f.panels.cancelReasons) != 0 {
		t.Fatal("handler acted on a missing scrim")
	}
}

func TestScheduledTimerCancelsWhenTeamDeleted(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 2, time.Hour)
	confirmFully(t, f, sc)

	delete(f.teams.teams, 2)
	f.events.handleScheduled(context.Background(), schedulePayload(sc))

	if f.scrims.count() != 0 {
		t.Fatal("scrim survived with a deleted team")
	}
	if len(f.panels.cancelReasons) != 1 {
		t.Fatalf("cancel announced %d times", len(f.panels.cancelReasons))
	}
}

func TestReminderOnPendingHostCancels(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 2, time.Hour)

	f.events.handleReminder(context.Background(), schedulePayload(sc))

	if f.panels.reminders != 1 {
		t.Fatalf("reminder announced %d times", f.panels.reminders)
	}
	if f.scrims.count() != 0 {
		t.Fatal("pending_host scrim survived the reminder")
	}
}

func TestReminderOnScheduledOnlyAnnounces(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 2, time.Hour)
	confirmFully(t, f, sc)

	f.events.handleReminder(context.Background(), schedulePayload(sc))

	if f.panels.reminders != 1 {
		t.Fatalf("reminder announced %d times", f.panels.reminders)
	}
	if f.scrims.count() != 1 {
		t.Fatal("scheduled scrim was deleted by the reminder")
	}
}

func TestDeleteTimerRemovesChatAndRow(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 2, time.Hour)
	confirmFully(t, f, sc)
	f.events.handleScheduled(context.Background(), schedulePayload(sc))

	f.clock.Advance(4 * time.Hour)
	f.events.handleDelete(context.Background(), schedulePayload(sc))

	if len(f.rooms.deleted) != 1 || f.rooms.deleted[0] != "chat-123" {
		t.Fatalf("deleted channels = %v", f.rooms.deleted)
	}
	if f.scrims.count() != 0 {
		t.Fatal("row survived the delete timer")
	}
}

func TestHomeMessageGoneCancelsOnAwayQuorum(t *testing.T) {
	f := newFixture()
	sc := f.create(t, 1, time.Hour)
	ctx := context.Background()

	f.confirm.VoteHome(ctx, guild, sc.ID, "h1")

	f.panels.homeGone = true
	_, err := f.confirm.VoteAway(ctx, guild, sc.ID, "a1")
	if !errors.Is(err, domain.ErrMessageGone) {
		t.Fatalf("err = %v", err)
	}
	if f.scrims.count() != 0 {
		t.Fatal("scrim survived with its home message deleted")
	}
}
