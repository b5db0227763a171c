package remote

// Schema creates the remote tables when missing.
const Schema = `
CREATE TABLE IF NOT EXISTS workouts
(
    id         VARCHAR PRIMARY KEY,
    user_id    VARCHAR     NOT NULL,
    name       VARCHAR     NOT NULL,
    date       TIMESTAMPTZ NOT NULL,
    notes      TEXT,
    exercises  JSONB       NOT NULL DEFAULT '[]'::jsonb,
    duration   INTEGER,
    start_time TIMESTAMPTZ,
    end_time   TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS ix_workouts_user_date ON workouts USING btree (user_id, date DESC);

CREATE TABLE IF NOT EXISTS user_profiles
(
    user_id        VARCHAR PRIMARY KEY,
    xp             INTEGER          NOT NULL DEFAULT 0,
    level          INTEGER          NOT NULL DEFAULT 1,
    rank           VARCHAR          NOT NULL DEFAULT 'beginner',
    achievements   JSONB            NOT NULL DEFAULT '[]'::jsonb,
    current_streak INTEGER          NOT NULL DEFAULT 0,
    longest_streak INTEGER          NOT NULL DEFAULT 0,
    total_workouts INTEGER          NOT NULL DEFAULT 0,
    total_volume   DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_prs      INTEGER          NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ      NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS personal_records
(
    id          SERIAL PRIMARY KEY,
    user_id     VARCHAR          NOT NULL,
    exercise_id VARCHAR          NOT NULL,
    weight      DOUBLE PRECISION NOT NULL,
    reps        INTEGER          NOT NULL,
    date        TIMESTAMPTZ      NOT NULL,
    created_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, exercise_id, weight, reps)
);
`
