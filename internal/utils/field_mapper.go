package utils

import (
	"fmt"
	"strings"
	"time"

	"parkeaya-panel/internal/db"
	"parkeaya-panel/internal/entities"
	"parkeaya-panel/internal/logger"
)

const (
	DefaultOpeningTime   = "08:00"
	DefaultClosingTime   = "22:00"
	DefaultSecurityLevel = "MEDIO"
	ApprovalVersion      = "1.0"
)

// DefaultServices is sent when the owner lists no services.
func DefaultServices() []string {
	return []string{"Vigilancia"}
}

// MappingIssue records a field that could not be parsed and was defaulted.
type MappingIssue struct {
	Field  string
	Value  string
	Reason string
}

// Draft is a parking configuration built from an inbound payload, before
// validation.
type Draft struct {
	Parking        db.ParkingConfig
	HasTotalSpaces bool
	Issues         []MappingIssue
}

// Warnings describes each defaulted field for the owner, nil when there
// were none.
func (d Draft) Warnings() []string {
	if len(d.Issues) == 0 {
		return nil
	}
	out := make([]string, 0, len(d.Issues))
	for _, is := range d.Issues {
		out = append(out, fmt.Sprintf("%s=%q was ignored: %s", is.Field, is.Value, is.Reason))
	}
	return out
}

// DraftFromPayload reads a flat English camelCase payload. Numeric fields may
// arrive as strings; unparsable values fall back to their defaults
// (totalSpaces 0, hourlyRate 0.0, availableSpaces = totalSpaces) and are
// recorded as issues.
func DraftFromPayload(payload map[string]any) Draft {
	d := applyPayload(db.ParkingConfig{IsVisible: true}, payload)
	if _, ok := d.set["availableSpaces"]; !ok {
		d.Parking.AvailableSpaces = d.Parking.TotalSpaces
	}
	d.logIssues()
	return d.Draft
}

// MergePayload overlays the fields present in payload onto base. Absent or
// unparsable fields keep the base value.
func MergePayload(base db.ParkingConfig, payload map[string]any) Draft {
	d := applyPayload(base.Clone(), payload)
	d.HasTotalSpaces = true
	d.logIssues()
	return d.Draft
}

type draftBuilder struct {
	Draft
	set map[string]struct{}
}

func applyPayload(base db.ParkingConfig, payload map[string]any) *draftBuilder {
	b := &draftBuilder{Draft: Draft{Parking: base}, set: make(map[string]struct{})}
	p := &b.Parking

	for key, dst := range map[string]*string{
		"id":            &p.ID,
		"name":          &p.Name,
		"address":       &p.Address,
		"description":   &p.Description,
		"imageUrl":      &p.ImageURL,
		"phone":         &p.Phone,
		"coordinates":   &p.Coordinates,
		"openingTime":   &p.OpeningTime,
		"closingTime":   &p.ClosingTime,
		"securityLevel": &p.SecurityLevel,
		"adminNotes":    &p.AdminNotes,
	} {
		if v, ok := payload[key]; ok {
			*dst = payloadString(v)
		}
	}
	if v, ok := payload["services"]; ok {
		p.Services = payloadList(v)
	}

	if v, ok := b.present(payload, "totalSpaces"); ok {
		b.HasTotalSpaces = true
		if n, ok := payloadInt(v); ok {
			p.TotalSpaces = n
		} else {
			b.issue("totalSpaces", v, "not an integer")
			p.TotalSpaces = 0
		}
	}
	if v, ok := b.present(payload, "availableSpaces"); ok {
		if n, ok := payloadInt(v); ok {
			p.AvailableSpaces = n
		} else {
			b.issue("availableSpaces", v, "not an integer")
			delete(b.set, "availableSpaces")
		}
	}
	if v, ok := b.present(payload, "hourlyRate"); ok {
		if f, ok := payloadFloat(v); ok {
			p.HourlyRate = f
		} else {
			b.issue("hourlyRate", v, "not a number")
			p.HourlyRate = 0
		}
	}
	if v, ok := b.present(payload, "owner"); ok {
		if n, ok := payloadInt(v); ok {
			p.Owner = int64(n)
		} else {
			b.issue("owner", v, "not an integer")
		}
	}
	if v, ok := payload["isVisible"]; ok {
		if bv, ok := payloadBool(v); ok {
			p.IsVisible = bv
		} else {
			b.issue("isVisible", v, "not a boolean")
		}
	}
	return b
}

// present reports a non-blank payload value and remembers the key as set.
func (b *draftBuilder) present(payload map[string]any, key string) (any, bool) {
	v, ok := payload[key]
	if !ok || payloadString(v) == "" {
		return nil, false
	}
	b.set[key] = struct{}{}
	return v, true
}

func (b *draftBuilder) logIssues() {
	for _, is := range b.Issues {
		logger.Warn("defaulted unparsable field", "field", is.Field, "value", is.Value, "reason", is.Reason)
	}
}

func (d *Draft) issue(field string, v any, reason string) {
	d.Issues = append(d.Issues, MappingIssue{Field: field, Value: payloadString(v), Reason: reason})
}

// ToRemoteParking translates a parking configuration into the remote
// vocabulary, filling the approval defaults for empty optional fields.
func ToRemoteParking(p db.ParkingConfig) entities.RemoteParking {
	r := entities.RemoteParking{
		ID:                entities.FlexString(p.ID),
		Nombre:            p.Name,
		Direccion:         p.Address,
		TotalPlazas:       entities.FlexInt(p.TotalSpaces),
		PlazasDisponibles: entities.FlexInt(p.AvailableSpaces),
		TarifaHora:        entities.FlexFloat(p.HourlyRate),
		Descripcion:       p.Description,
		Activo:            entities.FlexBool(p.IsVisible),
		Telefono:          p.Phone,
		Coordenadas:       p.Coordinates,
		HorarioApertura:   orDefault(p.OpeningTime, DefaultOpeningTime),
		HorarioCierre:     orDefault(p.ClosingTime, DefaultClosingTime),
		NivelSeguridad:    orDefault(p.SecurityLevel, DefaultSecurityLevel),
		Servicios:         append([]string(nil), p.Services...),
		NotasAprobacion:   p.AdminNotes,
		ImagenURL:         p.ImageURL,
		Dueno:             entities.FlexInt(p.Owner),
	}
	if len(r.Servicios) == 0 {
		r.Servicios = DefaultServices()
	}
	return r
}

// FromRemoteParking is the inverse of ToRemoteParking. Absent remote fields
// become zero values.
func FromRemoteParking(r entities.RemoteParking) db.ParkingConfig {
	p := db.ParkingConfig{
		ID:              r.ID.String(),
		Name:            r.Nombre,
		Address:         r.Direccion,
		TotalSpaces:     int(r.TotalPlazas),
		AvailableSpaces: int(r.PlazasDisponibles),
		HourlyRate:      float64(r.TarifaHora),
		IsVisible:       bool(r.Activo),
		Description:     r.Descripcion,
		ImageURL:        r.ImagenURL,
		Owner:           int64(r.Dueno),
		Phone:           r.Telefono,
		Coordinates:     r.Coordenadas,
		OpeningTime:     r.HorarioApertura,
		ClosingTime:     r.HorarioCierre,
		SecurityLevel:   r.NivelSeguridad,
		Services:        append([]string(nil), r.Servicios...),
		AdminNotes:      r.NotasAprobacion,
	}
	if len(p.Services) == 0 {
		p.Services = nil
	}
	if r.Aprobado != nil {
		if *r.Aprobado {
			p.RegistrationStatus = string(db.StatusApproved)
		} else {
			p.RegistrationStatus = string(db.StatusPending)
		}
	}
	return p
}

// ToRemoteApproval builds the approval request body for this panel.
func ToRemoteApproval(p db.ParkingConfig, panelID string, now time.Time) entities.ApprovalPayload {
	r := ToRemoteParking(p)
	r.ID = ""
	return entities.ApprovalPayload{
		RemoteParking:      r,
		PanelLocalID:       panelID,
		SolicitudTimestamp: now.UnixMilli(),
		VersionSolicitud:   ApprovalVersion,
	}
}

// RemoteApprovalStatus folds a remote approval request into a local status
// and, for rejections, the reason given.
func RemoteApprovalStatus(r entities.RemoteApprovalRequest) (db.ApprovalStatus, string) {
	for _, s := range []string{r.Estado, r.Status} {
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case "REJECTED", "RECHAZADO", "RECHAZADA":
			return db.StatusRejected, r.Motivo
		}
	}
	if r.Aprobado != nil && bool(*r.Aprobado) {
		return db.StatusApproved, ""
	}
	return db.StatusPending, ""
}

// StatusFromWebhook maps the status string pushed by the remote backend.
func StatusFromWebhook(estado string) (db.ApprovalStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(estado)) {
	case "APPROVED", "APROBADO", "APROBADA":
		return db.StatusApproved, true
	case "REJECTED", "RECHAZADO", "RECHAZADA":
		return db.StatusRejected, true
	case "PENDING", "PENDIENTE":
		return db.StatusPending, true
	default:
		return "", false
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
