package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayxworxfr/wm_console/internal/domain/models"
)

func catalogColumns() []models.AvailableColumn {
	return []models.AvailableColumn{
		{ColumnName: "name", ColumnDisplay: "Name"},
		{ColumnName: "price", ColumnDisplay: "Price"},
		{ColumnName: "note", ColumnDisplay: "Note"},
	}
}

func TestNewRoleFormDefaultsToNone(t *testing.T) {
	f := NewRoleForm(nil, catalogColumns())

	for _, col := range catalogColumns() {
		assert.Equal(t, "none", f.Permission(col.ColumnName))
	}
	assert.False(t, f.SystemGranted(models.SystemPermWorkCreate))
	assert.False(t, f.SystemGranted(models.SystemPermWorkDelete))
}

func TestNewRoleFormOverlaysExistingRole(t *testing.T) {
	role := &models.Role{
		ID:          3,
		Name:        "designer",
		Description: "design team",
		ColumnPermissions: []models.ColumnPermission{
			{ColumnName: "name", Permission: "write"},
			{ColumnName: "price", Permission: "r"}, // 兼容旧版级别标识
		},
		SystemPermissions: []models.SystemPermission{
			{PermissionType: models.SystemPermWorkCreate, Granted: true},
		},
	}
	f := NewRoleForm(role, catalogColumns())

	assert.Equal(t, uint64(3), f.ID)
	assert.Equal(t, "designer", f.Name)
	assert.Equal(t, "write", f.Permission("name"))
	assert.Equal(t, "read", f.Permission("price"))
	assert.Equal(t, "none", f.Permission("note"))
	assert.True(t, f.SystemGranted(models.SystemPermWorkCreate))
	assert.False(t, f.SystemGranted(models.SystemPermWorkDelete))
}

func TestCyclePermission(t *testing.T) {
	f := NewRoleForm(nil, catalogColumns())

	assert.Equal(t, "read", f.CyclePermission("name"))
	assert.Equal(t, "write", f.CyclePermission("name"))
	assert.Equal(t, "none", f.CyclePermission("name"))
}

func TestBuildRequestIsFullObject(t *testing.T) {
	f := NewRoleForm(nil, catalogColumns())
	f.Name = "operator"
	f.SetPermission("name", "write")
	f.ToggleSystem(models.SystemPermWorkDelete)

	req := f.BuildRequest()
	assert.Equal(t, "operator", req.Name)
	// 全量对象：未授权字段也以none形式出现
	require.Len(t, req.Permissions, 3)
	assert.Equal(t, "write", req.Permissions["name"])
	assert.Equal(t, "none", req.Permissions["price"])
	assert.Equal(t, "none", req.Permissions["note"])
	assert.True(t, req.SystemPermissions[models.SystemPermWorkDelete])
	assert.False(t, req.SystemPermissions[models.SystemPermWorkCreate])
}

func TestSetPermissionNormalizesUnknownLevel(t *testing.T) {
	f := NewRoleForm(nil, catalogColumns())
	f.SetPermission("name", "rw")
	assert.Equal(t, "write", f.Permission("name"))

	f.SetPermission("name", "bogus")
	assert.Equal(t, "none", f.Permission("name"))
}
