package db

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id               SERIAL PRIMARY KEY,
	first_name       TEXT NOT NULL,
	last_name        TEXT NOT NULL,
	nickname         TEXT NOT NULL DEFAULT '',
	phone            TEXT NOT NULL DEFAULT '',
	email            TEXT,
	birth_date       DATE,
	overall          SMALLINT NOT NULL DEFAULT 3 CHECK (overall BETWEEN 1 AND 5),
	vision           SMALLINT NOT NULL DEFAULT 3 CHECK (vision BETWEEN 1 AND 5),
	pace             SMALLINT NOT NULL DEFAULT 3 CHECK (pace BETWEEN 1 AND 5),
	possession       SMALLINT NOT NULL DEFAULT 3 CHECK (possession BETWEEN 1 AND 5),
	fitness          SMALLINT NOT NULL DEFAULT 3 CHECK (fitness BETWEEN 1 AND 5),
	tier             TEXT NOT NULL DEFAULT 'reserve',
	primary_role     TEXT NOT NULL DEFAULT 'midfielder',
	secondary_role   TEXT NOT NULL DEFAULT '',
	pin_hash         TEXT NOT NULL DEFAULT '',
	account_role     TEXT NOT NULL DEFAULT 'operator',
	blocked          BOOLEAN NOT NULL DEFAULT FALSE,
	mvp_points       INTEGER NOT NULL DEFAULT 0,
	wins             INTEGER NOT NULL DEFAULT 0,
	presences        INTEGER NOT NULL DEFAULT 0,
	goals            INTEGER NOT NULL DEFAULT 0,
	cards            INTEGER NOT NULL DEFAULT 0,
	red_appearances  INTEGER NOT NULL DEFAULT 0,
	blue_appearances INTEGER NOT NULL DEFAULT 0,
	photo_key        TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS players_username_key
	ON players (LOWER(first_name), LOWER(last_name));

CREATE TABLE IF NOT EXISTS matches (
	id                 SERIAL PRIMARY KEY,
	sequence           INTEGER NOT NULL,
	match_date         DATE NOT NULL,
	match_time         TEXT NOT NULL DEFAULT '20:00',
	location           TEXT NOT NULL DEFAULT '',
	format             TEXT NOT NULL DEFAULT '8v8',
	state              TEXT NOT NULL DEFAULT 'created',
	convocation_phase  SMALLINT NOT NULL DEFAULT 1,
	reserves_opened_at TIMESTAMPTZ,
	red_goals          INTEGER CHECK (red_goals >= 0),
	blue_goals         INTEGER CHECK (blue_goals >= 0),
	mvp_red            INTEGER REFERENCES players (id) ON DELETE SET NULL,
	mvp_blue           INTEGER REFERENCES players (id) ON DELETE SET NULL,
	stats_applied      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS match_convocations (
	match_id  INTEGER NOT NULL REFERENCES matches (id) ON DELETE CASCADE,
	player_id INTEGER NOT NULL REFERENCES players (id) ON DELETE CASCADE,
	response  TEXT NOT NULL DEFAULT 'pending',
	invited   BOOLEAN NOT NULL DEFAULT TRUE,
	position  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (match_id, player_id)
);

CREATE TABLE IF NOT EXISTS match_teams (
	match_id  INTEGER NOT NULL REFERENCES matches (id) ON DELETE CASCADE,
	player_id INTEGER NOT NULL REFERENCES players (id) ON DELETE CASCADE,
	side      TEXT NOT NULL CHECK (side IN ('red', 'blue')),
	position  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (match_id, player_id)
);

CREATE TABLE IF NOT EXISTS match_events (
	id        SERIAL PRIMARY KEY,
	match_id  INTEGER NOT NULL REFERENCES matches (id) ON DELETE CASCADE,
	player_id INTEGER NOT NULL REFERENCES players (id) ON DELETE CASCADE,
	kind      TEXT NOT NULL CHECK (kind IN ('goal', 'card')),
	goals     INTEGER NOT NULL DEFAULT 0,
	position  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS match_events_match_id_idx ON match_events (match_id);

CREATE TABLE IF NOT EXISTS match_applied_counters (
	match_id         INTEGER NOT NULL REFERENCES matches (id) ON DELETE CASCADE,
	player_id        INTEGER NOT NULL REFERENCES players (id) ON DELETE CASCADE,
	mvp_points       INTEGER NOT NULL DEFAULT 0,
	wins             INTEGER NOT NULL DEFAULT 0,
	presences        INTEGER NOT NULL DEFAULT 0,
	goals            INTEGER NOT NULL DEFAULT 0,
	cards            INTEGER NOT NULL DEFAULT 0,
	red_appearances  INTEGER NOT NULL DEFAULT 0,
	blue_appearances INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (match_id, player_id)
);
`
