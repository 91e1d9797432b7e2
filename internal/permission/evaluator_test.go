package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluator_FieldLevels(t *testing.T) {
	eval := NewEvaluator(Map{
		"name":  LevelWrite,
		"price": LevelRead,
		"note":  LevelNone,
	}, SystemFlags{}, false, true)

	// write级别：可见、可读、可写
	assert.True(t, eval.HasField("name"))
	assert.True(t, eval.CanRead("name"))
	assert.True(t, eval.CanWrite("name"))

	// read级别：可见、可读、不可写
	assert.True(t, eval.HasField("price"))
	assert.True(t, eval.CanRead("price"))
	assert.False(t, eval.CanWrite("price"))

	// none级别：有条目即可见，但不可读写
	assert.True(t, eval.HasField("note"))
	assert.False(t, eval.CanRead("note"))
	assert.False(t, eval.CanWrite("note"))

	// 映射中不存在的字段完全隐藏
	assert.False(t, eval.HasField("designer"))
	assert.False(t, eval.CanRead("designer"))
	assert.False(t, eval.CanWrite("designer"))
}

func TestEvaluator_NotLoaded(t *testing.T) {
	// 权限未加载时一切字段隐藏，即使是超级用户
	eval := NewEvaluator(Map{"name": LevelWrite}, SystemFlags{WorkCreate: true}, true, false)

	assert.False(t, eval.HasField("name"))
	assert.False(t, eval.CanRead("name"))
	assert.False(t, eval.CanWrite("name"))
	assert.False(t, eval.CanCreateWork())
	assert.False(t, eval.CanDeleteWork())

	assert.False(t, Empty().HasField("name"))
}

func TestEvaluator_SuperuserOverride(t *testing.T) {
	eval := NewEvaluator(Map{}, SystemFlags{}, true, true)

	// 超级用户对任意字段都有写权限，不依赖映射内容
	assert.True(t, eval.HasField("name"))
	assert.True(t, eval.CanRead("shipping_date"))
	assert.True(t, eval.CanWrite("printing_controller"))
	assert.True(t, eval.CanCreateWork())
	assert.True(t, eval.CanDeleteWork())
}

func TestEvaluator_SystemFlags(t *testing.T) {
	eval := NewEvaluator(Map{}, SystemFlags{WorkCreate: true, WorkDelete: false}, false, true)

	assert.True(t, eval.CanCreateWork())
	assert.False(t, eval.CanDeleteWork())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelRead, ParseLevel("read"))
	assert.Equal(t, LevelRead, ParseLevel("r"))
	assert.Equal(t, LevelWrite, ParseLevel("write"))
	assert.Equal(t, LevelWrite, ParseLevel("rw"))
	assert.Equal(t, LevelNone, ParseLevel("none"))
	assert.Equal(t, LevelNone, ParseLevel(""))
	assert.Equal(t, LevelNone, ParseLevel("admin"))
}
