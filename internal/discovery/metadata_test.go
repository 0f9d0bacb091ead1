package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raaihank/pii-scanner/internal/connector"
	"github.com/raaihank/pii-scanner/internal/privacy"
	"github.com/raaihank/pii-scanner/internal/scanerr"
)

func TestClassifyColumns(t *testing.T) {
	columns := []connector.Column{
		{Table: "EMPLOYEES", Name: "EMPLOYEE_ID", DataType: "NUMBER"},
		{Table: "EMPLOYEES", Name: "FIRST_NAME", DataType: "VARCHAR2"},
		{Table: "EMPLOYEES", Name: "HIRED", DataType: "DATE"},
		{Table: "EMPLOYEES", Name: "IpAddress"},
		{Table: "LOOKUPS", Name: "CODE", DataType: "CHAR"},
	}

	tables, byTable, err := groupColumns(columns, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"EMPLOYEES", "LOOKUPS"}, tables)

	result := ClassifyColumns("XE", tables, byTable, privacy.DefaultRegistry().Lookup(nil))

	assert.Equal(t, "XE", result.Metadata.DBName)
	require.Len(t, result.Metadata.Tables, 2)

	emp := result.Metadata.Tables[0]
	assert.Equal(t, "3", emp.RowCount)
	assert.Equal(t, UnknownOwner, emp.Owner)
	assert.Equal(t, 1, emp.Classifications[privacy.CategoryIdentifiers])
	assert.Equal(t, 1, emp.Classifications[privacy.CategoryPII])
	assert.Equal(t, 1, emp.Classifications[privacy.CategoryBehavioral])

	require.Len(t, result.TableScans[0].Columns, 3)
	assert.Equal(t, ColumnStat{
		Name:           "EMPLOYEE_ID",
		Type:           "employee_id",
		DataType:       "NUMBER",
		Classification: privacy.CategoryIdentifiers,
	}, result.TableScans[0].Columns[0])
	assert.Equal(t, ColumnDataType, result.TableScans[0].Columns[2].DataType)
	assert.Empty(t, result.TableScans[0].Columns[0].Accuracy)

	lookups := result.Metadata.Tables[1]
	assert.Equal(t, "0", lookups.RowCount)
	assert.Zero(t, lookups.Classifications.Total())
	assert.Empty(t, result.TableScans[1].Columns)
}

func TestClassifyColumnsRespectsAllowList(t *testing.T) {
	columns := []connector.Column{
		{Table: "users", Name: "email"},
		{Table: "users", Name: "ssn"},
	}
	tables, byTable, err := groupColumns(columns, nil)
	require.NoError(t, err)

	result := ClassifyColumns("app", tables, byTable, privacy.DefaultRegistry().Lookup([]string{"ssn"}))
	require.Len(t, result.TableScans[0].Columns, 1)
	assert.Equal(t, "ssn", result.TableScans[0].Columns[0].Type)
}

func TestGroupColumnsRequestedTables(t *testing.T) {
	columns := []connector.Column{
		{Table: "EMPLOYEES", Name: "EMAIL"},
		{Table: "ORDERS", Name: "ORDER_ID"},
	}

	tables, _, err := groupColumns(columns, []string{"orders", "employees"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ORDERS", "EMPLOYEES"}, tables)

	_, _, err = groupColumns(columns, []string{"ghost"})
	require.Error(t, err)
	assert.Equal(t, scanerr.KindQuery, scanerr.KindOf(err))
	assert.Contains(t, err.Error(), "ghost")
}

func TestClassifyMetadata(t *testing.T) {
	conn := sqliteDatabase(t)
	engine, _ := newTestEngine(EngineConfig{})
	events := &recorder{}
	engine.AddNotifier(events)

	result, err := engine.ClassifyMetadata(context.Background(), ScanRequest{
		Connection: connector.Params{ConnString: conn},
		ClientID:   "client-3",
	})
	require.NoError(t, err)

	assert.Equal(t, "crm.db", result.Metadata.DBName)
	require.Len(t, result.Metadata.Tables, 2)
	assert.Equal(t, "customers", result.Metadata.Tables[0].Name)
	assert.Equal(t, "2", result.Metadata.Tables[0].RowCount)
	assert.Equal(t, 2, result.Metadata.Tables[0].Classifications[privacy.CategoryPII])
	assert.Equal(t, "notes", result.Metadata.Tables[1].Name)
	assert.Equal(t, "0", result.Metadata.Tables[1].RowCount)

	names := []string{}
	for _, col := range result.TableScans[0].Columns {
		names = append(names, col.Name)
		assert.Equal(t, "TEXT", col.DataType)
		assert.Zero(t, col.Scanned)
	}
	assert.Equal(t, []string{"email", "phone"}, names)

	assert.Equal(t, []EventType{EventScanStarted, EventScanCompleted}, events.types())
	assert.Equal(t, "client-3", events.events[1].ClientID)
	assert.Equal(t, 2, events.events[1].Matches)
}

func TestClassifyMetadataSingleTable(t *testing.T) {
	conn := sqliteDatabase(t)
	engine, _ := newTestEngine(EngineConfig{AllowedTypesDefault: []string{"email"}})

	result, err := engine.ClassifyMetadata(context.Background(), ScanRequest{
		Tables:     []string{"customers"},
		Connection: connector.Params{ConnString: conn},
	})
	require.NoError(t, err)
	require.Len(t, result.TableScans, 1)
	require.Len(t, result.TableScans[0].Columns, 1)
	assert.Equal(t, "email", result.TableScans[0].Columns[0].Type)
}

func TestClassifyMetadataErrors(t *testing.T) {
	engine, resolver := newTestEngine(EngineConfig{})

	_, err := engine.ClassifyMetadata(context.Background(), ScanRequest{})
	assert.Equal(t, scanerr.KindConfiguration, scanerr.KindOf(err))
	assert.Equal(t, 0, resolver.calls)

	_, err = engine.ClassifyMetadata(context.Background(), ScanRequest{
		Tables:     []string{"ghost"},
		Connection: connector.Params{ConnString: sqliteDatabase(t)},
	})
	assert.Equal(t, scanerr.KindQuery, scanerr.KindOf(err))
}
