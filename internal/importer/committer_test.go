package importer_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"voter-canvass-backend/internal/config"
	"voter-canvass-backend/internal/importer"
	"voter-canvass-backend/internal/model"
	apperrors "voter-canvass-backend/pkg/errors"
)

type fakeStore struct {
	meta         *model.SessionMeta
	getErr       error
	acquireErr   error
	consumeErr   error
	consumed     bool
	released     bool
	deregistered bool
}

func (f *fakeStore) Get(ctx context.Context, id string) (*model.SessionMeta, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.meta, nil
}

func (f *fakeStore) Acquire(ctx context.Context, id string) error { return f.acquireErr }

func (f *fakeStore) Release(ctx context.Context, id string) { f.released = true }

func (f *fakeStore) Consume(ctx context.Context, id string) error {
	if f.consumeErr != nil {
		return f.consumeErr
	}
	f.consumed = true
	return nil
}

func (f *fakeStore) Deregister(ctx context.Context, id, objectKey string) { f.deregistered = true }

type fakeStorage struct {
	data       []byte
	downloaded bool
	deletedKey string
}

func (f *fakeStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	f.downloaded = true
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func (f *fakeStorage) Upload(ctx context.Context, key string, data io.Reader) error { return nil }

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.deletedKey = key
	return nil
}

func (f *fakeStorage) Exists(ctx context.Context, key string) (bool, error) { return true, nil }

type fakeVoterRepo struct {
	upserts  []*model.Voter
	existing map[string]bool
	runs     []*model.ImportRun
}

func (f *fakeVoterRepo) UpsertVoter(ctx context.Context, voter *model.Voter) (bool, error) {
	f.upserts = append(f.upserts, voter)
	if f.existing[voter.DedupKey()] {
		return false, nil
	}
	if f.existing == nil {
		f.existing = map[string]bool{}
	}
	f.existing[voter.DedupKey()] = true
	return true, nil
}

func (f *fakeVoterRepo) InsertImportRun(ctx context.Context, run *model.ImportRun) error {
	f.runs = append(f.runs, run)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Import: config.ImportConfig{
			SessionTTL:      time.Hour,
			CommitTimeout:   time.Minute,
			PreviewRows:     20,
			ErrorReportCap:  100,
			InlineErrors:    10,
			JanitorInterval: 10 * time.Minute,
		},
	}
}

func testMeta(columns []string) *model.SessionMeta {
	return &model.SessionMeta{
		ID:        "sess-1",
		Filename:  "voters.csv",
		Format:    "csv",
		ObjectKey: "imports/sess-1.csv",
		Columns:   columns,
	}
}

var voterMapping = map[string]string{
	"name_english": "Name",
	"age":          "Age",
	"booth_number": "Booth",
	"gender":       "Gender",
	"phone":        "Phone",
}

func TestCommitPerRowAccounting(t *testing.T) {
	t.Parallel()

	csv := "Name,Age,Booth,Gender,Phone\n" +
		"Voter One,30,1,male,9876543210\n" +
		"Voter Two,31,1,female,9876543211\n" +
		"Voter Three,abc,1,male,9876543212\n" + // bad age
		"Voter Four,33,1,female,9876543213\n" +
		"Voter Five,34,1,male,9876543214\n" +
		"Voter Six,35,1,female,9876543215\n" +
		"Voter Seven,200,1,male,9876543216\n" + // age out of range
		"Voter Eight,37,1,female,9876543217\n" +
		"Voter Nine,38,1,male,9876543218\n" +
		"Voter Ten,39,1,female,9876543219\n"

	store := &fakeStore{meta: testMeta([]string{"Name", "Age", "Booth", "Gender", "Phone"})}
	st := &fakeStorage{data: []byte(csv)}
	repo := &fakeVoterRepo{}

	committer := importer.NewCommitter(store, st, repo, testConfig())
	outcome, err := committer.Commit(context.Background(), "sess-1", voterMapping, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Imported != 8 {
		t.Errorf("imported = %d, want 8", outcome.Imported)
	}
	if outcome.Errored != 2 {
		t.Errorf("errored = %d, want 2", outcome.Errored)
	}
	if outcome.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", outcome.Skipped)
	}
	if len(outcome.Errors) != 2 || outcome.Errors[0].Row != 3 || outcome.Errors[1].Row != 7 {
		t.Errorf("expected errors for rows 3 and 7, got %v", outcome.Errors)
	}
	if len(repo.upserts) != 8 {
		t.Errorf("expected 8 upserts, got %d", len(repo.upserts))
	}
	for _, voter := range repo.upserts {
		if voter.AdminID != "admin-1" {
			t.Errorf("voter not assigned to admin: %+v", voter)
		}
	}
	if !store.consumed {
		t.Error("session should be consumed after a successful commit")
	}
	if st.deletedKey != "imports/sess-1.csv" {
		t.Errorf("raw upload not cleaned up, deleted key = %q", st.deletedKey)
	}
	if !store.deregistered {
		t.Error("upload should be deregistered from the janitor after commit")
	}
	if len(repo.runs) != 1 || repo.runs[0].ImportedCount != 8 || repo.runs[0].ErrorCount != 2 {
		t.Errorf("import run not recorded correctly: %+v", repo.runs)
	}
}

func TestCommitSkipsBlankRows(t *testing.T) {
	t.Parallel()

	csv := "Name,Age,Booth,Gender,Phone\n" +
		"Voter One,30,1,male,9876543210\n" +
		",,,,\n" +
		"Voter Two,31,2,female,9876543211\n"

	store := &fakeStore{meta: testMeta([]string{"Name", "Age", "Booth", "Gender", "Phone"})}
	repo := &fakeVoterRepo{}

	committer := importer.NewCommitter(store, &fakeStorage{data: []byte(csv)}, repo, testConfig())
	outcome, err := committer.Commit(context.Background(), "sess-1", voterMapping, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Imported != 2 || outcome.Errored != 0 || outcome.Skipped != 1 {
		t.Errorf("unexpected accounting: imported=%d errored=%d skipped=%d",
			outcome.Imported, outcome.Errored, outcome.Skipped)
	}
	if outcome.Imported+outcome.Errored >= outcome.TotalRows {
		t.Error("blank row must count in neither imported nor errored")
	}
}

func TestCommitInvalidMappingDoesNotConsume(t *testing.T) {
	t.Parallel()

	store := &fakeStore{meta: testMeta([]string{"Name", "Age"})}
	st := &fakeStorage{data: []byte("Name,Age\nAsha,30\n")}
	repo := &fakeVoterRepo{}

	committer := importer.NewCommitter(store, st, repo, testConfig())
	_, err := committer.Commit(context.Background(), "sess-1", map[string]string{
		"name_english": "Name",
		"booth_number": "Booth", // not a detected column
	}, "admin-1")
	if err == nil {
		t.Fatal("expected error")
	}

	var verr *apperrors.MappingValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected MappingValidationError, got %v", err)
	}
	if len(verr.UnknownColumns) != 1 || verr.UnknownColumns[0].Column != "Booth" {
		t.Errorf("expected the unknown column named exactly, got %+v", verr.UnknownColumns)
	}
	if store.consumed {
		t.Error("failed mapping validation must not consume the session")
	}
	if st.downloaded || len(repo.upserts) != 0 {
		t.Error("failed mapping validation must not touch rows")
	}
}

func TestCommitSessionAlreadyConsumed(t *testing.T) {
	t.Parallel()

	store := &fakeStore{getErr: apperrors.ErrSessionConsumed}
	repo := &fakeVoterRepo{}

	committer := importer.NewCommitter(store, &fakeStorage{}, repo, testConfig())
	_, err := committer.Commit(context.Background(), "sess-1", voterMapping, "admin-1")
	if !errors.Is(err, apperrors.ErrSessionConsumed) {
		t.Fatalf("expected ErrSessionConsumed, got %v", err)
	}
	if len(repo.upserts) != 0 {
		t.Error("consumed session must cause zero additional writes")
	}
}

func TestCommitSessionExpiresMidCommit(t *testing.T) {
	t.Parallel()

	// The session TTL lapses while rows are being written: the final consume
	// finds nothing, but the rows are already upserted, so the caller still
	// gets the accounting instead of a failure.
	store := &fakeStore{
		meta:       testMeta([]string{"Name", "Age", "Booth", "Gender", "Phone"}),
		consumeErr: apperrors.ErrSessionNotFound,
	}
	st := &fakeStorage{data: []byte("Name,Age,Booth,Gender,Phone\nAsha,30,1,female,9876543210\n")}
	repo := &fakeVoterRepo{}

	committer := importer.NewCommitter(store, st, repo, testConfig())
	outcome, err := committer.Commit(context.Background(), "sess-1", voterMapping, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Imported != 1 {
		t.Errorf("imported = %d, want 1", outcome.Imported)
	}
	if len(repo.runs) != 1 {
		t.Errorf("import run should still be recorded, got %d", len(repo.runs))
	}
	if st.deletedKey != "imports/sess-1.csv" {
		t.Errorf("raw upload should still be cleaned up, deleted key = %q", st.deletedKey)
	}
	if !store.deregistered {
		t.Error("upload should still be deregistered from the janitor")
	}
}

func TestCommitRaceLoserFailsFast(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		meta:       testMeta([]string{"Name", "Age", "Booth", "Gender", "Phone"}),
		acquireErr: apperrors.ErrSessionConsumed,
	}
	st := &fakeStorage{data: []byte("Name,Age,Booth,Gender,Phone\nAsha,30,1,female,9876543210\n")}
	repo := &fakeVoterRepo{}

	committer := importer.NewCommitter(store, st, repo, testConfig())
	_, err := committer.Commit(context.Background(), "sess-1", voterMapping, "admin-1")
	if !errors.Is(err, apperrors.ErrSessionConsumed) {
		t.Fatalf("expected ErrSessionConsumed, got %v", err)
	}
	if st.downloaded || len(repo.upserts) != 0 {
		t.Error("race loser must not import anything")
	}
}

func TestCommitExpiredSession(t *testing.T) {
	t.Parallel()

	store := &fakeStore{getErr: apperrors.ErrSessionNotFound}

	committer := importer.NewCommitter(store, &fakeStorage{}, &fakeVoterRepo{}, testConfig())
	_, err := committer.Commit(context.Background(), "gone", voterMapping, "admin-1")
	if !errors.Is(err, apperrors.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCommitDedupUpdatesExisting(t *testing.T) {
	t.Parallel()

	csv := "Name,Age,Booth,Gender,Phone\nAsha Patil,30,12,female,9876543210\n"
	store := &fakeStore{meta: testMeta([]string{"Name", "Age", "Booth", "Gender", "Phone"})}
	repo := &fakeVoterRepo{existing: map[string]bool{
		model.DedupKey("Asha Patil", "12", "9876543210"): true,
	}}

	committer := importer.NewCommitter(store, &fakeStorage{data: []byte(csv)}, repo, testConfig())
	outcome, err := committer.Commit(context.Background(), "sess-1", voterMapping, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The row matches an existing record: it updates rather than duplicates,
	// and still counts as imported.
	if outcome.Imported != 1 {
		t.Errorf("imported = %d, want 1", outcome.Imported)
	}
	if len(repo.upserts) != 1 {
		t.Errorf("expected exactly one upsert, got %d", len(repo.upserts))
	}
}

func TestCommitErrorListCapped(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	buf.WriteString("Name,Age,Booth,Gender,Phone\n")
	for i := 0; i < 150; i++ {
		buf.WriteString("Bad Voter,notanage,1,male,9876543210\n")
	}

	store := &fakeStore{meta: testMeta([]string{"Name", "Age", "Booth", "Gender", "Phone"})}
	cfg := testConfig()

	committer := importer.NewCommitter(store, &fakeStorage{data: buf.Bytes()}, &fakeVoterRepo{}, cfg)
	outcome, err := committer.Commit(context.Background(), "sess-1", voterMapping, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Errored != 150 {
		t.Errorf("errored = %d, want 150", outcome.Errored)
	}
	if len(outcome.Errors) != cfg.Import.ErrorReportCap {
		t.Errorf("stored errors = %d, want cap %d", len(outcome.Errors), cfg.Import.ErrorReportCap)
	}
	if outcome.TruncatedErrors != 50 {
		t.Errorf("truncated = %d, want 50", outcome.TruncatedErrors)
	}

	resp := outcome.Response(cfg.Import.InlineErrors)
	if len(resp.Errors) != cfg.Import.InlineErrors {
		t.Errorf("inline errors = %d, want %d", len(resp.Errors), cfg.Import.InlineErrors)
	}
	if resp.TruncatedErrors != 140 {
		t.Errorf("response truncated = %d, want 140", resp.TruncatedErrors)
	}
}
