package storage

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    start_time  DATETIME NOT NULL,
    device_type TEXT     NOT NULL,
    device_id   TEXT     NOT NULL,
    config      TEXT
);

CREATE TABLE IF NOT EXISTS sweeps (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id  INTEGER  NOT NULL REFERENCES sessions (id),
    started_at  DATETIME NOT NULL,
    start_hz    REAL     NOT NULL,
    stop_hz     REAL     NOT NULL,
    point_count INTEGER  NOT NULL,
    status      TEXT     NOT NULL,
    fault_index INTEGER
);

CREATE TABLE IF NOT EXISTS points (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    sweep_id        INTEGER NOT NULL REFERENCES sweeps (id),
    idx             INTEGER NOT NULL,
    frequency_hz    REAL    NOT NULL,
    magnitude_volts REAL    NOT NULL,
    phase_volts     REAL,
    swr             REAL    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_points_sweep ON points (sweep_id, idx);

CREATE TABLE IF NOT EXISTS ratings (
    sweep_id     INTEGER PRIMARY KEY REFERENCES sweeps (id),
    score        INTEGER NOT NULL,
    grade        TEXT    NOT NULL,
    min_swr      REAL    NOT NULL,
    avg_swr      REAL    NOT NULL,
    resonant_hz  REAL    NOT NULL,
    bandwidth_hz REAL    NOT NULL,
    coverage     REAL    NOT NULL,
    notes        TEXT
);`

const (
	insertSessionSQL = `
INSERT INTO sessions (start_time,
                      device_type,
                      device_id,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?, ?)`

	insertSweepSQL = `
INSERT INTO sweeps (session_id,
                    started_at,
                    start_hz,
                    stop_hz,
                    point_count,
                    status,
                    fault_index)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	insertPointSQL = `
INSERT INTO points (sweep_id,
                    idx,
                    frequency_hz,
                    magnitude_volts,
                    phase_volts,
                    swr)
VALUES (?, ?, ?, ?, ?, ?)`

	insertRatingSQL = `
INSERT INTO ratings (sweep_id,
                     score,
                     grade,
                     min_swr,
                     avg_swr,
                     resonant_hz,
                     bandwidth_hz,
                     coverage,
                     notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectSweepSQL = `
SELECT
    started_at,
    start_hz,
    stop_hz,
    point_count,
    status,
    fault_index
FROM sweeps
WHERE
    id = ?`

	selectPointsSQL = `
SELECT
    frequency_hz,
    magnitude_volts,
    phase_volts,
    swr
FROM points
WHERE
    sweep_id = ?
ORDER BY idx`

	selectRatingSQL = `
SELECT
    score,
    grade,
    min_swr,
    avg_swr,
    resonant_hz,
    bandwidth_hz,
    coverage,
    notes
FROM ratings
WHERE
    sweep_id = ?`
)
