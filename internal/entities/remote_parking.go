package entities

import "strings"

// RemoteParking is a parking lot as the remote backend stores it.
type RemoteParking struct {
	ID                FlexString `json:"id,omitempty"`
	Nombre            string     `json:"nombre"`
	Direccion         string     `json:"direccion"`
	TotalPlazas       FlexInt    `json:"total_plazas"`
	PlazasDisponibles FlexInt    `json:"plazas_disponibles"`
	TarifaHora        FlexFloat  `json:"tarifa_hora"`
	Descripcion       string     `json:"descripcion"`
	Activo            FlexBool   `json:"activo"`
	Telefono          string     `json:"telefono,omitempty"`
	Coordenadas       string     `json:"coordenadas,omitempty"`
	HorarioApertura   string     `json:"horario_apertura,omitempty"`
	HorarioCierre     string     `json:"horario_cierre,omitempty"`
	NivelSeguridad    string     `json:"nivel_seguridad,omitempty"`
	Servicios         []string   `json:"servicios,omitempty"`
	NotasAprobacion   string     `json:"notas_aprobacion,omitempty"`
	ImagenURL         string     `json:"imagen_url,omitempty"`
	Dueno             FlexInt    `json:"dueno,omitempty"`
	Aprobado          *FlexBool  `json:"aprobado,omitempty"`
}

// ApprovalPayload is the body posted to /approval-requests/.
type ApprovalPayload struct {
	RemoteParking
	PanelLocalID       string `json:"panel_local_id"`
	SolicitudTimestamp int64  `json:"solicitud_timestamp"`
	VersionSolicitud   string `json:"version_solicitud"`
}

// RemoteApprovalRequest is an approval request as returned by the remote
// backend.
type RemoteApprovalRequest struct {
	RemoteParking
	PanelLocalID   string     `json:"panel_local_id,omitempty"`
	Status         string     `json:"status,omitempty"`
	Estado         string     `json:"estado,omitempty"`
	Motivo         string     `json:"motivo,omitempty"`
	FechaSolicitud FlexString `json:"fecha_solicitud,omitempty"`
}

// RemoteLoginResponse holds the token fields the remote login may answer
// with. Only one of them is expected to be set.
type RemoteLoginResponse struct {
	Access string `json:"access"`
	Token  string `json:"token"`
	Key    string `json:"key"`
}

// BearerToken returns the first non-empty token field.
func (r RemoteLoginResponse) BearerToken() string {
	switch {
	case r.Access != "":
		return r.Access
	case r.Token != "":
		return r.Token
	default:
		return r.Key
	}
}

// RemoteHealth is the body of GET /health/.
type RemoteHealth struct {
	Status string `json:"status"`
}

// Healthy is true for an absent status or one of ok, healthy, up.
func (h RemoteHealth) Healthy() bool {
	switch strings.ToLower(strings.TrimSpace(h.Status)) {
	case "", "ok", "healthy", "up":
		return true
	default:
		return false
	}
}
