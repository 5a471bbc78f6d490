// Package domain models Madrid municipal incident data and the rules that
// turn heterogeneous raw feed records into canonical incidents.
//
// # Feeds
//
// Four upstream extractors drop per-day JSON files, one directory per
// source, with no schema shared between them:
//
//	ide    weekly electricity outage PDF from the distributor, parsed into
//	       rows with municipio / fecha (DD/MM/YYYY) / hora_inicio / hora_fin
//	       (HH:MM, local time) / via / numero. No coordinates.
//	canal  water supply incidents scraped from the utility's map: free-text
//	       direccion plus lat/lon and ISO-ish start/end timestamps.
//	ayto   city roadworks/traffic XML re-published as JSON events with a
//	       descripcion field and ISO timestamps without a timezone.
//	gas    gas network interventions with structured via/numero, lat/lon
//	       and full RFC 3339 timestamps.
//
// All local times are Europe/Madrid unless the value carries an offset.
// Canonical timestamps are always UTC.
//
// # Address conventions
//
// Street values may carry parser noise before the via-type token:
//
//	"AFECTADOS: Calle Mayor"  ->  "Calle Mayor"
//
// Recognized via tokens: Cl, C/, Calle, Avda, Av., Paseo, Ps., Plaza, Pl.,
// Ctra, Ronda, Camino, Cmno, Pza.
//
// Street numbers from the PDF parser are frequently glued to whatever
// followed them on the page — the city name, a date, a time, or the next
// address segment. [CleanNumber] strips those tails and keeps a leading run
// of digits plus at most two letters ("12", "4B").
//
// Free-text descriptions encode numbers behind markers:
//
//	"Corte en Calle Goya nº 12"  ->  street "Corte en Calle Goya", number "12"
//
// Extraction only ever fills fields that are empty after structured
// cleaning.
//
// # Fingerprints
//
// Incident identity is a SHA-1 over the normalized (city, street,
// street_number, category, source, start_ts_utc) tuple. Two raw records
// that normalize to the same tuple are the same incident; partitions never
// hold two records with the same fingerprint. See [Fingerprint].
package domain
