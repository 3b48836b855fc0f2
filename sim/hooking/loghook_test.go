package hooking

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LogHook", func() {
	It("should print the position and the item", func() {
		buf := &bytes.Buffer{}
		hook := NewLogHook(log.New(buf, "", 0))

		hook.Func(HookCtx{Pos: &HookPos{Name: "CacheHit"}, Item: "0x1068"})
		hook.Func(HookCtx{Pos: &HookPos{Name: "CacheMiss"}, Item: 7})

		Expect(buf.String()).To(Equal("CacheHit 0x1068\nCacheMiss 7\n"))
	})
})
