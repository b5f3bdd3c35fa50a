package rx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitter(t *testing.T) {
	t.Run("分发给对应事件的监听器", func(t *testing.T) {
		e := NewEmitter[string]()
		var got []string

		e.AddEventListener("click", func(v string) { got = append(got, "a:"+v) })
		e.AddEventListener("click", func(v string) { got = append(got, "b:"+v) })
		e.AddEventListener("key", func(v string) { got = append(got, "key:"+v) })

		assert.Equal(t, 2, e.Emit("click", "x"))
		assert.Equal(t, []string{"a:x", "b:x"}, got)
		assert.Zero(t, e.Emit("scroll", "y"))
	})

	t.Run("移除监听器", func(t *testing.T) {
		e := NewEmitter[int]()
		remove := e.AddEventListener("tick", func(int) {})
		assert.Equal(t, 1, e.ListenerCount("tick"))

		remove()
		remove()
		assert.Zero(t, e.ListenerCount("tick"))
		assert.Zero(t, e.Emit("tick", 1))
	})

	t.Run("分发期间移除的监听器被跳过", func(t *testing.T) {
		e := NewEmitter[int]()
		var removeSecond func()
		secondCalled := false

		e.AddEventListener("tick", func(int) { removeSecond() })
		removeSecond = e.AddEventListener("tick", func(int) { secondCalled = true })

		assert.Equal(t, 1, e.Emit("tick", 1))
		assert.False(t, secondCalled)
	})

	t.Run("零值可用", func(t *testing.T) {
		var e Emitter[int]
		called := false
		e.AddEventListener("tick", func(int) { called = true })

		e.Emit("tick", 1)
		assert.True(t, called)
	})
}
