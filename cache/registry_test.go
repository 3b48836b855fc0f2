package cache

import (
	"sync"

	"github.com/sarchlab/thrash/sim/hooking"
	"golang.org/x/sync/errgroup"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type channelA struct{}

var channelARegistry = NewRegistry("test.A")

func (channelA) Registry() *Registry { return channelARegistry }

type channelB struct{}

var channelBRegistry = NewRegistry("test.B")

func (channelB) Registry() *Registry { return channelBRegistry }

var (
	hookedRegistry   = NewRegistry("test.hooks")
	snapshotRegistry = NewRegistry("test.snapshots")
)

var _ = Describe("Registry", func() {
	AfterEach(func() {
		Finish[channelA]()
		Finish[channelB]()
		Finish[Global]()
	})

	It("should report nothing when unconfigured", func() {
		_, ok := GetReport[channelA]()
		Expect(ok).To(BeFalse())

		_, ok = Finish[channelA]()
		Expect(ok).To(BeFalse())

		Expect(channelARegistry.IsConfigured()).To(BeFalse())
	})

	It("should ignore touches when unconfigured", func() {
		channelARegistry.Touch(100)

		_, ok := Configure[channelA](Spec8KiB32B2Way())
		Expect(ok).To(BeFalse())

		r, ok := GetReport[channelA]()
		Expect(ok).To(BeTrue())
		Expect(r.AccessCount).To(Equal(uint32(0)))
	})

	It("should return the previous report on reconfigure", func() {
		Configure[channelA](Spec8KiB32B2Way())
		channelARegistry.Touch(4200)
		channelARegistry.Touch(4200)
		channelARegistry.Touch(9000)

		prev, ok := Configure[channelA](Spec32KiB64B8Way())

		Expect(ok).To(BeTrue())
		Expect(prev).To(Equal(Report{
			AccessCount: 3,
			Hits:        1,
			Misses:      2,
			Spec:        Spec8KiB32B2Way(),
		}))

		curr, ok := GetReport[channelA]()
		Expect(ok).To(BeTrue())
		Expect(curr).To(Equal(Report{Spec: Spec32KiB64B8Way()}))
	})

	It("should leave the channel unconfigured after finish", func() {
		Configure[channelA](Spec8KiB32B2Way())
		channelARegistry.Touch(1)

		final, ok := Finish[channelA]()
		Expect(ok).To(BeTrue())
		Expect(final.Misses).To(Equal(uint32(1)))

		_, ok = GetReport[channelA]()
		Expect(ok).To(BeFalse())
	})

	It("should keep channels isolated", func() {
		Configure[channelA](Spec8KiB32B2Way())
		Configure[channelB](Spec8KiB32B2Way())

		for i := range uint64(16) {
			channelARegistry.Touch(i * 64)
		}

		b, _ := GetReport[channelB]()
		Expect(b.AccessCount).To(Equal(uint32(0)))

		a, _ := GetReport[channelA]()
		Expect(a.AccessCount).To(Equal(uint32(16)))
	})

	It("should run the basic scenario on the global channel", func() {
		Configure[Global](Spec8KiB32B2Way())
		Global{}.Registry().Touch(0xc000_0100)
		Global{}.Registry().Touch(0xc000_0100)

		r, ok := Finish[Global]()
		Expect(ok).To(BeTrue())
		Expect(r.Hits).To(Equal(uint32(1)))
		Expect(r.Misses).To(Equal(uint32(1)))
	})

	It("should list and look up declared channels", func() {
		names := []string{}
		for _, r := range Registries() {
			names = append(names, r.Name())
		}

		Expect(names).To(ContainElements("Global", "test.A", "test.B"))

		r, ok := LookupRegistry("test.B")
		Expect(ok).To(BeTrue())
		Expect(r).To(BeIdenticalTo(channelBRegistry))

		_, ok = LookupRegistry("missing")
		Expect(ok).To(BeFalse())
	})

	It("should panic when a name is declared twice", func() {
		Expect(func() { NewRegistry("test.A") }).To(Panic())
	})

	It("should keep hooks across reconfiguration", func() {
		counter := &countingHook{}
		r := hookedRegistry
		r.AcceptHook(counter)

		r.Configure(Spec8KiB32B2Way())
		r.Touch(1)
		r.Configure(Spec8KiB32B2Way())
		r.Touch(1)
		r.Finish()

		Expect(r.NumHooks()).To(Equal(1))
		Expect(counter.count).To(Equal(2))

		r.Configure(Spec8KiB32B2Way())
		r.RemoveHook(counter)
		r.Touch(1)
		r.Finish()

		Expect(r.NumHooks()).To(Equal(0))
		Expect(counter.count).To(Equal(2))
	})

	It("should let hooks read counters from the live state", func() {
		snapshots := &snapshotHook{}
		snapshotRegistry.AcceptHook(snapshots)
		defer snapshotRegistry.RemoveHook(snapshots)

		snapshotRegistry.Configure(Spec8KiB32B2Way())

		var g errgroup.Group
		g.Go(func() error {
			for range 1000 {
				snapshotRegistry.Touch(4200)
			}

			return nil
		})
		g.Go(func() error {
			for range 10 {
				snapshotRegistry.Configure(Spec8KiB32B2Way())
			}

			return nil
		})
		Expect(g.Wait()).To(Succeed())
		snapshotRegistry.Finish()

		Expect(snapshots.reports).To(HaveLen(1000))
		for _, r := range snapshots.reports {
			Expect(r.Hits + r.Misses).To(BeNumerically(">=", 1))
		}
	})

	It("should count every concurrent touch exactly once", func() {
		Configure[channelA](Spec8KiB32B2Way())

		var g errgroup.Group
		for w := range uint64(8) {
			g.Go(func() error {
				for i := range uint64(1000) {
					channelARegistry.Touch(w*4096 + i*8)
				}

				return nil
			})
		}
		Expect(g.Wait()).To(Succeed())

		r, _ := GetReport[channelA]()
		Expect(r.AccessCount).To(Equal(uint32(8000)))
		Expect(r.Hits + r.Misses).To(Equal(uint32(8000)))
	})

	It("should survive reconfiguration during touches", func() {
		Configure[channelB](Spec8KiB32B2Way())

		var g errgroup.Group
		for w := range uint64(4) {
			g.Go(func() error {
				for i := range uint64(500) {
					channelBRegistry.Touch(w*64 + i)
				}

				return nil
			})
		}

		g.Go(func() error {
			for range 20 {
				Configure[channelB](Spec8KiB32B2Way())
			}

			return nil
		})

		Expect(g.Wait()).To(Succeed())

		r, ok := GetReport[channelB]()
		Expect(ok).To(BeTrue())
		Expect(r.Hits + r.Misses).To(Equal(r.AccessCount))
	})
})

type snapshotHook struct {
	lock    sync.Mutex
	reports []Report
}

func (h *snapshotHook) Func(ctx hooking.HookCtx) {
	r := ctx.Domain.(*State).Report()

	h.lock.Lock()
	defer h.lock.Unlock()

	h.reports = append(h.reports, r)
}

type countingHook struct {
	count int
}

func (h *countingHook) Func(ctx hooking.HookCtx) {
	if ctx.Pos == HookPosMiss || ctx.Pos == HookPosHit {
		h.count++
	}
}
