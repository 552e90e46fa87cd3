package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reelsmith/internal/config"
)

// Store manages project run-state persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run-state database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "projects.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

const itemColumns = `id, channel, title, video_id, slug, status,
	outline_file, script_file, audio_json, plan_file, images_json,
	clip_file, video_file, thumbnail_file, metadata_file, receipt_file,
	upload_id, upload_url, error_message,
	progress_stage, progress_percent, progress_message,
	needs_review, review_reason, created_at, updated_at`

// NewProject inserts a new pending project for a channel and title.
func (s *Store) NewProject(ctx context.Context, channel, title, videoID, slug string) (*Item, error) {
	channel = strings.TrimSpace(channel)
	title = strings.TrimSpace(title)
	videoID = strings.TrimSpace(videoID)
	if channel == "" {
		return nil, errors.New("channel is required")
	}
	if title == "" {
		return nil, errors.New("title is required")
	}
	if videoID == "" {
		return nil, errors.New("video id is required")
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO project_items (
			channel, title, video_id, slug, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		channel,
		title,
		videoID,
		slug,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a project item by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM project_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// FindByChannelTitle returns the most recent project matching a channel and title.
func (s *Store) FindByChannelTitle(ctx context.Context, channel, title string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM project_items WHERE channel = ? AND title = ? ORDER BY id DESC LIMIT 1`,
		strings.TrimSpace(channel),
		strings.TrimSpace(title),
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by channel/title: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing project item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE project_items
		 SET channel = ?, title = ?, video_id = ?, slug = ?, status = ?,
		     outline_file = ?, script_file = ?, audio_json = ?, plan_file = ?, images_json = ?,
		     clip_file = ?, video_file = ?, thumbnail_file = ?, metadata_file = ?, receipt_file = ?,
		     upload_id = ?, upload_url = ?, error_message = ?,
		     progress_stage = ?, progress_percent = ?, progress_message = ?,
		     needs_review = ?, review_reason = ?, updated_at = ?
		 WHERE id = ?`,
		item.Channel,
		item.Title,
		item.VideoID,
		item.Slug,
		item.Status,
		nullableString(item.OutlineFile),
		nullableString(item.ScriptFile),
		nullableString(item.AudioJSON),
		nullableString(item.PlanFile),
		nullableString(item.ImagesJSON),
		nullableString(item.ClipFile),
		nullableString(item.VideoFile),
		nullableString(item.ThumbnailFile),
		nullableString(item.MetadataFile),
		nullableString(item.ReceiptFile),
		nullableString(item.UploadID),
		nullableString(item.UploadURL),
		nullableString(item.ErrorMessage),
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		boolToInt(item.NeedsReview),
		nullableString(item.ReviewReason),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// List returns project items filtered by status set (or all items when no
// status is provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	baseQuery := `SELECT ` + itemColumns + ` FROM project_items`
	orderClause := ` ORDER BY created_at`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ResetStuckProcessing rolls interrupted processing statuses back to their
// upstream done status so the affected stage can re-run.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	var total int64
	for _, transition := range stageRollbackTransitions {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE project_items SET status = ?, progress_percent = 0, progress_message = NULL, updated_at = ?
			 WHERE status = ?`,
			transition.to,
			time.Now().UTC().Format(time.RFC3339Nano),
			transition.from,
		)
		if err != nil {
			return total, fmt.Errorf("reset %s items: %w", transition.from, err)
		}
		count, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += count
	}
	return total, nil
}

// Delete removes a project item. Artifacts on disk are left in place.
func (s *Store) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM project_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(scanner rowScanner) (*Item, error) {
	var (
		item            Item
		outlineFile     sql.NullString
		scriptFile      sql.NullString
		audioJSON       sql.NullString
		planFile        sql.NullString
		imagesJSON      sql.NullString
		clipFile        sql.NullString
		videoFile       sql.NullString
		thumbnailFile   sql.NullString
		metadataFile    sql.NullString
		receiptFile     sql.NullString
		uploadID        sql.NullString
		uploadURL       sql.NullString
		errorMessage    sql.NullString
		progressStage   sql.NullString
		progressMessage sql.NullString
		reviewReason    sql.NullString
		needsReview     int
		createdAt       string
		updatedAt       string
	)

	err := scanner.Scan(
		&item.ID,
		&item.Channel,
		&item.Title,
		&item.VideoID,
		&item.Slug,
		&item.Status,
		&outlineFile,
		&scriptFile,
		&audioJSON,
		&planFile,
		&imagesJSON,
		&clipFile,
		&videoFile,
		&thumbnailFile,
		&metadataFile,
		&receiptFile,
		&uploadID,
		&uploadURL,
		&errorMessage,
		&progressStage,
		&item.ProgressPercent,
		&progressMessage,
		&needsReview,
		&reviewReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.OutlineFile = outlineFile.String
	item.ScriptFile = scriptFile.String
	item.AudioJSON = audioJSON.String
	item.PlanFile = planFile.String
	item.ImagesJSON = imagesJSON.String
	item.ClipFile = clipFile.String
	item.VideoFile = videoFile.String
	item.ThumbnailFile = thumbnailFile.String
	item.MetadataFile = metadataFile.String
	item.ReceiptFile = receiptFile.String
	item.UploadID = uploadID.String
	item.UploadURL = uploadURL.String
	item.ErrorMessage = errorMessage.String
	item.ProgressStage = progressStage.String
	item.ProgressMessage = progressMessage.String
	item.ReviewReason = reviewReason.String
	item.NeedsReview = needsReview != 0

	if item.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if item.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &item, nil
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", count), ", ")
}
