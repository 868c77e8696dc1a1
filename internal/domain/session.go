package domain

import "time"

// DomainScore es el puntaje ponderado de un dominio para un perfil.
type DomainScore struct {
	Domain string  `json:"domain"`
	Score  float64 `json:"score"`
}

// ArchivedReport es un reporte final guardado para consulta posterior.
// Solo se archivan resultados cerrados, nunca sesiones en curso.
type ArchivedReport struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Domain    string    `json:"domain"`
	Score     float64   `json:"score"`
	Profile   Profile   `json:"profile"`
	Payload   []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
