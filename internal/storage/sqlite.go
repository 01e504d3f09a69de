package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roman-kulish/antenna-analyzer/internal/rating"
	"github.com/roman-kulish/antenna-analyzer/internal/sweep"
)

// sqliteStore handles database operations. A WAL-journaled connection serves
// writes and a separate read-only connection serves queries; both open
// lazily on first use.
type sqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

func newSqliteStore(dbPath string) *sqliteStore {
	return &sqliteStore{dbPath: dbPath}
}

func (s *sqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL", s.dbPath))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if _, err = db.Exec(initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *sqliteStore) getReadDB() (*sql.DB, error) {
	// The write connection must exist first so the schema is in place.
	if _, err := s.getWriteDB(); err != nil {
		return nil, err
	}

	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", s.dbPath))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *sqliteStore) CreateSession(ctx context.Context, deviceType, deviceID string, config any) (sessionID int64, err error) {
	var configData sql.NullString

	if config != nil {
		switch v := config.(type) {
		case string:
			configData.Valid = true
			configData.String = v

		case []byte:
			configData.Valid = true
			configData.String = string(v)

		default:
			var p []byte
			if p, err = json.Marshal(config); err != nil {
				err = fmt.Errorf("marshaling config: %w", err)
				return
			}

			configData.Valid = true
			configData.String = string(p)
		}
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	result, err := db.ExecContext(ctx, insertSessionSQL, deviceType, deviceID, configData)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
	}
	return
}

func (s *sqliteStore) StoreSweep(ctx context.Context, sessionID int64, res *sweep.Result) (sweepID int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		err = fmt.Errorf("beginning transaction: %w", err)
		return
	}
	defer rollbackWithError(tx, &err)

	var faultIndex sql.NullInt64
	if res.Status == sweep.StatusFaulted {
		faultIndex = sql.NullInt64{Int64: int64(res.FaultIndex), Valid: true}
	}

	result, err := tx.ExecContext(ctx, insertSweepSQL,
		sessionID, res.StartedAt.UTC(), res.StartHz, res.StopHz,
		res.PointCount, statusToString(res.Status), faultIndex)
	if err != nil {
		err = fmt.Errorf("inserting sweep: %w", err)
		return
	}

	if sweepID, err = result.LastInsertId(); err != nil {
		err = fmt.Errorf("getting sweep ID: %w", err)
		return
	}

	stmt, err := tx.PrepareContext(ctx, insertPointSQL)
	if err != nil {
		err = fmt.Errorf("preparing point statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	for i, p := range res.Points {
		var phase sql.NullFloat64
		if p.PhaseVolts != nil {
			phase = sql.NullFloat64{Float64: *p.PhaseVolts, Valid: true}
		}

		if _, err = stmt.ExecContext(ctx, sweepID, i, p.FrequencyHz, p.MagnitudeVolts, phase, p.SWR); err != nil {
			err = fmt.Errorf("inserting point %d: %w", i, err)
			return
		}
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("committing sweep: %w", err)
	}
	return
}

func (s *sqliteStore) StoreRating(ctx context.Context, sweepID int64, r *rating.Rating) error {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	notes, err := json.Marshal(r.Notes)
	if err != nil {
		return fmt.Errorf("marshaling notes: %w", err)
	}

	if _, err = db.ExecContext(ctx, insertRatingSQL,
		sweepID, r.Score, string(r.Grade), r.MinSWR, r.AvgSWR,
		r.ResonantFrequencyHz, r.UsableBandwidthHz, r.CoverageRatio, string(notes)); err != nil {
		return fmt.Errorf("inserting rating: %w", err)
	}
	return nil
}

func (s *sqliteStore) Sweep(ctx context.Context, sweepID int64) (res *sweep.Result, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	var sr sweep.Result
	var startedAt time.Time
	var status string
	var faultIndex sql.NullInt64

	row := db.QueryRowContext(ctx, selectSweepSQL, sweepID)
	if err = row.Scan(&startedAt, &sr.StartHz, &sr.StopHz, &sr.PointCount, &status, &faultIndex); err != nil {
		err = fmt.Errorf("scanning sweep: %w", err)
		return
	}

	sr.StartedAt = startedAt
	sr.FaultIndex = -1
	if faultIndex.Valid {
		sr.FaultIndex = int(faultIndex.Int64)
	}
	if sr.Status, err = statusFromString(status); err != nil {
		return
	}

	rows, err := db.QueryContext(ctx, selectPointsSQL, sweepID)
	if err != nil {
		err = fmt.Errorf("querying points: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var p sweep.Point
		var phase sql.NullFloat64

		if err = rows.Scan(&p.FrequencyHz, &p.MagnitudeVolts, &phase, &p.SWR); err != nil {
			err = fmt.Errorf("scanning point: %w", err)
			return
		}
		if phase.Valid {
			p.PhaseVolts = &phase.Float64
		}

		sr.Points = append(sr.Points, p)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("reading points: %w", err)
		return
	}

	return &sr, nil
}

func (s *sqliteStore) Rating(ctx context.Context, sweepID int64) (r *rating.Rating, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	var rt rating.Rating
	var grade string
	var notes sql.NullString

	row := db.QueryRowContext(ctx, selectRatingSQL, sweepID)
	err = row.Scan(&rt.Score, &grade, &rt.MinSWR, &rt.AvgSWR,
		&rt.ResonantFrequencyHz, &rt.UsableBandwidthHz, &rt.CoverageRatio, &notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		err = fmt.Errorf("scanning rating: %w", err)
		return
	}

	rt.Grade = rating.Grade(grade)
	if notes.Valid && notes.String != "" {
		if err = json.Unmarshal([]byte(notes.String), &rt.Notes); err != nil {
			err = fmt.Errorf("unmarshaling notes: %w", err)
			return
		}
	}

	return &rt, nil
}

func (s *sqliteStore) Close() error {
	s.closeOnce.Do(func() {
		if s.writeDB != nil {
			if err := s.writeDB.Close(); err != nil {
				s.closeErr = err
			}
		}
		if s.readDB != nil {
			if err := s.readDB.Close(); err != nil && s.closeErr == nil {
				s.closeErr = err
			}
		}
	})

	return s.closeErr
}
