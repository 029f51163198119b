package models

import "time"

type BackupMetadata struct {
	Version string    `json:"version"`
	Date    time.Time `json:"date"`
	Source  string    `json:"source"`
}

// BackupPlayer добавляет к игроку поля, скрытые в обычном JSON.
type BackupPlayer struct {
	*Player
	PINHash  string  `json:"pin_hash,omitempty"`
	PhotoKey *string `json:"photo_key,omitempty"`
}

type BackupData struct {
	Players []*BackupPlayer `json:"players"`
	Matches []*Match        `json:"matches"`
}

// Backup - полный снимок данных для экспорта и восстановления.
type Backup struct {
	Metadata BackupMetadata `json:"metadata"`
	Data     BackupData     `json:"data"`
}

func NewBackupPlayer(p *Player) *BackupPlayer {
	return &BackupPlayer{Player: p, PINHash: p.PINHash, PhotoKey: p.PhotoKey}
}

// Unwrap возвращает игрока с восстановленными скрытыми полями.
func (b *BackupPlayer) Unwrap() *Player {
	p := b.Player.Clone()
	p.PINHash = b.PINHash
	p.PhotoKey = b.PhotoKey
	p.PhotoURL = nil
	return p
}
