package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"voter-canvass-backend/internal/model"
)

type Repository interface {
	UpsertVoter(ctx context.Context, voter *model.Voter) (bool, error)
	CreateVoter(ctx context.Context, voter *model.Voter) error
	GetVoter(ctx context.Context, id int64) (*model.Voter, error)
	ListVoters(ctx context.Context, filter model.VoterFilter) ([]*model.Voter, int, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	TouchLastLogin(ctx context.Context, id string) error
	InsertImportRun(ctx context.Context, run *model.ImportRun) error
	ListImportRuns(ctx context.Context, limit int) ([]*model.ImportRun, error)
	DashboardCounts(ctx context.Context, adminID string) (total, visited, voted int, err error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const voterColumns = `id, voter_id, name, name_local, full_name, gender, age, area, ward,
	booth_number, phone, caste, address, favor_score, favor_category,
	visited_status, voted_status, visit_count, admin_id, assigned_to, created_at, updated_at`

// UpsertVoter inserts the voter or merges it into the record sharing its
// dedup key. Merge policy: a non-empty incoming value wins, an empty one
// never clobbers existing data. System flags (visited/voted/assignment) are
// untouched on update. Returns true when a new record was created.
func (r *repository) UpsertVoter(ctx context.Context, voter *model.Voter) (bool, error) {
	query := `INSERT INTO voters
		(dedup_key, voter_id, name, name_local, full_name, gender, age, area, ward,
		 booth_number, phone, caste, address, favor_score, favor_category,
		 visited_status, voted_status, visit_count, admin_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
		ON DUPLICATE KEY UPDATE
		 voter_id   = IFNULL(NULLIF(VALUES(voter_id), ''), voter_id),
		 name       = IFNULL(NULLIF(VALUES(name), ''), name),
		 name_local = IFNULL(NULLIF(VALUES(name_local), ''), name_local),
		 full_name  = IFNULL(NULLIF(VALUES(full_name), ''), full_name),
		 gender     = IFNULL(NULLIF(VALUES(gender), ''), gender),
		 age        = IF(VALUES(age) > 0, VALUES(age), age),
		 area       = IFNULL(NULLIF(VALUES(area), ''), area),
		 ward       = IFNULL(NULLIF(VALUES(ward), ''), ward),
		 booth_number = IFNULL(NULLIF(VALUES(booth_number), ''), booth_number),
		 phone      = IFNULL(NULLIF(VALUES(phone), ''), phone),
		 caste      = IFNULL(NULLIF(VALUES(caste), ''), caste),
		 address    = IFNULL(NULLIF(VALUES(address), ''), address),
		 admin_id   = IFNULL(NULLIF(VALUES(admin_id), ''), admin_id),
		 updated_at = NOW()`

	result, err := r.db.ExecContext(ctx, query,
		voter.DedupKey(), voter.VoterID, voter.Name, voter.NameLocal, voter.FullName,
		voter.Gender, voter.Age, voter.Area, voter.Ward, voter.BoothNumber,
		voter.Phone, voter.Caste, voter.Address, voter.FavorScore, voter.FavorCategory,
		voter.VisitedStatus, voter.VotedStatus, voter.VisitCount, voter.AdminID)
	if err != nil {
		return false, err
	}

	// MySQL reports 1 affected row for an insert, 2 for an update.
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *repository) CreateVoter(ctx context.Context, voter *model.Voter) error {
	query := `INSERT INTO voters
		(dedup_key, voter_id, name, name_local, full_name, gender, age, area, ward,
		 booth_number, phone, caste, address, favor_score, favor_category,
		 visited_status, voted_status, visit_count, admin_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	result, err := r.db.ExecContext(ctx, query,
		voter.DedupKey(), voter.VoterID, voter.Name, voter.NameLocal, voter.FullName,
		voter.Gender, voter.Age, voter.Area, voter.Ward, voter.BoothNumber,
		voter.Phone, voter.Caste, voter.Address, voter.FavorScore, voter.FavorCategory,
		voter.VisitedStatus, voter.VotedStatus, voter.VisitCount, voter.AdminID)
	if err != nil {
		return err
	}

	voter.ID, err = result.LastInsertId()
	return err
}

func (r *repository) GetVoter(ctx context.Context, id int64) (*model.Voter, error) {
	query := fmt.Sprintf(`SELECT %s FROM voters WHERE id = ?`, voterColumns)
	return scanVoter(r.db.QueryRowContext(ctx, query, id))
}

func (r *repository) ListVoters(ctx context.Context, filter model.VoterFilter) ([]*model.Voter, int, error) {
	where, args := buildVoterFilter(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM voters` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM voters%s ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		voterColumns, where)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var voters []*model.Voter
	for rows.Next() {
		voter, err := scanVoter(rows)
		if err != nil {
			return nil, 0, err
		}
		voters = append(voters, voter)
	}
	return voters, total, rows.Err()
}

func buildVoterFilter(filter model.VoterFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	if filter.Search != "" {
		conds = append(conds, "(full_name LIKE ? OR name_local LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	if filter.Gender != "" {
		conds = append(conds, "gender = ?")
		args = append(args, filter.Gender)
	}
	if filter.Area != "" {
		conds = append(conds, "area = ?")
		args = append(args, filter.Area)
	}
	if filter.Ward != "" {
		conds = append(conds, "ward = ?")
		args = append(args, filter.Ward)
	}
	if filter.BoothNumber != "" {
		conds = append(conds, "booth_number = ?")
		args = append(args, filter.BoothNumber)
	}
	if filter.AgeMin != nil {
		conds = append(conds, "age >= ?")
		args = append(args, *filter.AgeMin)
	}
	if filter.AgeMax != nil {
		conds = append(conds, "age <= ?")
		args = append(args, *filter.AgeMax)
	}
	if filter.Visited != nil {
		conds = append(conds, "visited_status = ?")
		args = append(args, *filter.Visited)
	}
	if filter.Voted != nil {
		conds = append(conds, "voted_status = ?")
		args = append(args, *filter.Voted)
	}
	if filter.AdminID != "" {
		conds = append(conds, "admin_id = ?")
		args = append(args, filter.AdminID)
	}
	if filter.AssignedTo != "" {
		conds = append(conds, "assigned_to = ?")
		args = append(args, filter.AssignedTo)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVoter(row rowScanner) (*model.Voter, error) {
	var voter model.Voter
	err := row.Scan(
		&voter.ID, &voter.VoterID, &voter.Name, &voter.NameLocal, &voter.FullName,
		&voter.Gender, &voter.Age, &voter.Area, &voter.Ward, &voter.BoothNumber,
		&voter.Phone, &voter.Caste, &voter.Address, &voter.FavorScore, &voter.FavorCategory,
		&voter.VisitedStatus, &voter.VotedStatus, &voter.VisitCount,
		&voter.AdminID, &voter.AssignedTo, &voter.CreatedAt, &voter.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &voter, nil
}

func (r *repository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT id, username, email, full_name, password_hash, role, active_status, last_login, created_at
			  FROM users WHERE username = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT id, username, email, full_name, password_hash, role, active_status, last_login, created_at
			  FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func scanUser(row rowScanner) (*model.User, error) {
	var user model.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.PasswordHash, &user.Role, &user.ActiveStatus, &user.LastLogin, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) TouchLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login = NOW() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *repository) InsertImportRun(ctx context.Context, run *model.ImportRun) error {
	query := `INSERT INTO import_runs
		(session_id, filename, admin_id, uploaded_by, total_rows, imported_count, error_count, skipped_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW())`

	result, err := r.db.ExecContext(ctx, query,
		run.SessionID, run.Filename, run.AdminID, run.UploadedBy,
		run.TotalRows, run.ImportedCount, run.ErrorCount, run.SkippedCount)
	if err != nil {
		return err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return err
	}
	run.CreatedAt = time.Now().UTC()
	return nil
}

func (r *repository) ListImportRuns(ctx context.Context, limit int) ([]*model.ImportRun, error) {
	query := `SELECT id, session_id, filename, admin_id, uploaded_by, total_rows,
					 imported_count, error_count, skipped_count, created_at
			  FROM import_runs ORDER BY created_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*model.ImportRun
	for rows.Next() {
		var run model.ImportRun
		err := rows.Scan(&run.ID, &run.SessionID, &run.Filename, &run.AdminID, &run.UploadedBy,
			&run.TotalRows, &run.ImportedCount, &run.ErrorCount, &run.SkippedCount, &run.CreatedAt)
		if err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

func (r *repository) DashboardCounts(ctx context.Context, adminID string) (int, int, int, error) {
	query := `SELECT COUNT(*),
					 COUNT(CASE WHEN visited_status THEN 1 END),
					 COUNT(CASE WHEN voted_status THEN 1 END)
			  FROM voters`
	args := []interface{}{}
	if adminID != "" {
		query += ` WHERE admin_id = ?`
		args = append(args, adminID)
	}

	var total, visited, voted int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total, &visited, &voted); err != nil {
		return 0, 0, 0, err
	}
	return total, visited, voted, nil
}
