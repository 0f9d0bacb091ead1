package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cast"

	"github.com/raaihank/pii-scanner/internal/connector"
	"github.com/raaihank/pii-scanner/internal/discovery"
	"github.com/raaihank/pii-scanner/internal/scanerr"
)

// maxBodyBytes caps scan request bodies
const maxBodyBytes = 1 << 20

// decodeScanRequest reads a scan request body. Loose JSON types are
// accepted: port may be a number or a string and pii_types a list or a
// comma separated string. When requireTable is set, table_name is
// mandatory.
func decodeScanRequest(r *http.Request, requireTable bool) (discovery.ScanRequest, error) {
	var req discovery.ScanRequest

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return req, scanerr.Configuration("read request", err)
	}

	raw := map[string]interface{}{}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			return req, scanerr.Configuration("decode request", err)
		}
	}

	str := func(key string) (string, error) {
		v, ok := raw[key]
		if !ok || v == nil {
			return "", nil
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return "", scanerr.Configurationf("field %s must be a string", key)
		}
		return strings.TrimSpace(s), nil
	}

	fields := map[string]*string{
		"conn_string": &req.Connection.ConnString,
		"host":        &req.Connection.Host,
		"port":        &req.Connection.Port,
		"username":    &req.Connection.Username,
		"password":    &req.Connection.Password,
		"database":    &req.Connection.Database,
		"db_type":     &req.Connection.DBKind,
		"client_id":   &req.ClientID,
	}
	for key, dst := range fields {
		if *dst, err = str(key); err != nil {
			return req, err
		}
	}

	if req.AllowedTypes, err = stringList(raw["pii_types"]); err != nil {
		return req, scanerr.Configurationf("field pii_types must be a list or a comma separated string")
	}

	if requireTable {
		table, err := str("table_name")
		if err != nil {
			return req, err
		}
		if table == "" {
			return req, scanerr.Configurationf("table_name is required")
		}
		req.Tables = []string{table}
	}

	return req, nil
}

// stringList accepts nil, a comma separated string or a list of scalars
func stringList(v interface{}) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return splitList(t), nil
	default:
		items, err := cast.ToStringSliceE(t)
		if err != nil {
			return nil, fmt.Errorf("not a list: %w", err)
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, nil
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// scrub removes connection secrets from a message about to leave the
// process
func scrub(msg string, p connector.Params) string {
	if p.Password != "" {
		msg = strings.ReplaceAll(msg, p.Password, "xxxxx")
	}
	if p.HasConnString() {
		conn := strings.TrimSpace(p.ConnString)
		msg = strings.ReplaceAll(msg, conn, p.String())
	}
	return msg
}
