package source

import (
	"fmt"
	"time"

	"github.com/enterate/incident-etl/internal/domain"
)

// unifyEvent maps the event-shaped feeds (canal, ayto, gas) into the
// canonical schema. They share field names: event_id, programado,
// start_ts/end_ts, and a free-text message. A scheduled event is planned;
// anything else takes the feed's fallback status.
func unifyEvent(rec domain.RawRecord, loc *time.Location, opts Options, src domain.Source, cat domain.Category, fallback domain.Status, descKeys ...string) (domain.CanonicalIncident, error) {
	startRaw, ok := rec.String("start_ts", "fechaInicio", "fh_inicio")
	if !ok {
		return domain.CanonicalIncident{}, fmt.Errorf("%s record missing start timestamp", src)
	}
	start, err := parseTimestamp(startRaw, loc)
	if err != nil {
		return domain.CanonicalIncident{}, fmt.Errorf("%s start: %w", src, err)
	}

	var end *time.Time
	if endRaw, ok := rec.String("end_ts", "fechaFin", "fh_final"); ok {
		if e, err := parseTimestamp(endRaw, loc); err == nil && !e.Before(start) {
			end = &e
		}
	}

	status := fallback
	if scheduled, ok := rec.Bool("programado", "scheduled"); ok && scheduled {
		status = domain.StatusPlanned
	}

	city, _ := rec.String("municipio", "city")
	if city == "" {
		city = opts.City
	}
	street, _ := rec.String("via")
	number, _ := rec.String("numero")
	desc, _ := rec.String(descKeys...)
	eventID, _ := rec.String("event_id", "id_incidencia")

	return domain.CanonicalIncident{
		Source:        src,
		Category:      cat,
		Status:        status,
		City:          city,
		Street:        strPtr(street),
		StreetNumber:  strPtr(number),
		Lat:           floatField(rec, "lat", "latitud"),
		Lon:           floatField(rec, "lon", "longitud"),
		StartTSUTC:    start,
		EndTSUTC:      end,
		Description:   strPtr(desc),
		EventID:       strPtr(eventID),
		IngestedAtUTC: domain.Now(),
	}, nil
}
