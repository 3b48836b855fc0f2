package cache

import (
	"github.com/sarchlab/thrash/sim/hooking"
	"go.uber.org/mock/gomock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("State", func() {
	var (
		state *State
	)

	BeforeEach(func() {
		state = NewState(Spec8KiB32B2Way())
	})

	It("should start with zeroed counters", func() {
		Expect(state.Report()).To(Equal(Report{Spec: Spec8KiB32B2Way()}))
	})

	It("should miss then hit the same address", func() {
		state.TouchAddress(1000)
		state.TouchAddress(1000)

		r := state.Report()
		Expect(r.Hits).To(Equal(uint32(1)))
		Expect(r.Misses).To(Equal(uint32(1)))
		Expect(r.AccessCount).To(Equal(uint32(2)))
	})

	It("should keep hitting without interleaved touches", func() {
		for range 10 {
			state.TouchAddress(0x1234)
		}

		r := state.Report()
		Expect(r.Misses).To(Equal(uint32(1)))
		Expect(r.Hits).To(Equal(uint32(9)))
	})

	It("should thrash three arrays mapped to the same sets", func() {
		aBase := uint64(4200)
		bBase := aBase + 512*8
		cBase := bBase + 512*8

		for i := range uint64(12) {
			state.TouchAddress(aBase + 8*i)
			state.TouchAddress(bBase + 8*i)
			state.TouchAddress(cBase + 8*i)
		}

		r := state.Report()
		Expect(r.AccessCount).To(Equal(uint32(36)))
		Expect(r.Spec.TotalSize()).To(Equal(uint64(8192)))
		Expect(r.Hits).To(Equal(uint32(0)))
		Expect(r.Misses).To(Equal(uint32(36)))
	})

	It("should hit three out of four on a linear walk", func() {
		for i := range uint64(128) {
			state.TouchAddress(4200 + 8*i)
		}

		r := state.Report()
		Expect(r.AccessCount).To(Equal(uint32(128)))
		Expect(r.Spec.TotalSize()).To(Equal(uint64(8192)))
		Expect(r.Hits).To(Equal(uint32(96)))
		Expect(r.Misses).To(Equal(uint32(32)))
	})

	It("should not change counters when reporting", func() {
		state.TouchAddress(64)

		first := state.Report()
		second := state.Report()

		Expect(second).To(Equal(first))
	})

	It("should panic when the set mask reaches past the last set", func() {
		unreachable := NewSpec(7, 5, 1)
		Expect(unreachable.TotalSize()).To(Equal(uint64(8192)))

		Expect(func() { NewState(unreachable) }).To(Panic())
		Expect(func() { NewState(NewSpec(5, 5, 1)) }).NotTo(Panic())
	})

	Context("with hooks", func() {
		var (
			mockCtrl *gomock.Controller
			hook     *MockHook
			seen     []hooking.HookCtx
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			hook = NewMockHook(mockCtrl)
			seen = nil

			state.AcceptHook(hook)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		record := func(times int) {
			hook.EXPECT().
				Func(gomock.Any()).
				Do(func(ctx hooking.HookCtx) { seen = append(seen, ctx) }).
				Times(times)
		}

		It("should report a miss and then a hit", func() {
			record(2)

			state.TouchAddress(4200)
			state.TouchAddress(4200)

			Expect(seen[0].Pos).To(BeIdenticalTo(HookPosMiss))
			Expect(seen[1].Pos).To(BeIdenticalTo(HookPosHit))
			Expect(seen[1].Domain).To(BeIdenticalTo(state))
			Expect(seen[1].Item).To(Equal(TouchEvent{
				Address:  4200,
				SetIndex: 3,
				Tag:      1,
				Way:      0,
			}))
		})

		It("should report the evicted block", func() {
			record(4)

			state.TouchAddress(4200)
			state.TouchAddress(8296)
			state.TouchAddress(12392)

			Expect(seen[2].Pos).To(BeIdenticalTo(HookPosEvict))
			Expect(seen[2].Item).To(Equal(TouchEvent{
				Address:  12392,
				SetIndex: 3,
				Tag:      1,
				Way:      0,
			}))
			Expect(seen[3].Pos).To(BeIdenticalTo(HookPosMiss))
			Expect(seen[3].Item.(TouchEvent).Tag).To(Equal(uint32(3)))
		})
	})
})
