package tagging

import (
	"math/rand"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Line", func() {
	var (
		line  *Line
		epoch *atomic.Uint32
	)

	BeforeEach(func() {
		line = new(Line)
		epoch = new(atomic.Uint32)
	})

	It("should start invalid and zeroed", func() {
		Expect(line.Load()).To(Equal(Block{}))
	})

	DescribeTable("should round-trip through pack and unpack",
		func(b Block) {
			Expect(Unpack(Pack(b))).To(Equal(b))

			line.Store(b)
			Expect(line.Load()).To(Equal(b))
		},
		Entry("all zero", Block{}),
		Entry("reference value", Block{Tag: 0xABCDEFAB, Recency: 0x0123456, IsValid: true}),
		Entry("max tag, max recency", Block{Tag: 0xffffffff, Recency: 1<<31 - 1, IsValid: true}),
		Entry("invalid with payload", Block{Tag: 7, Recency: 9, IsValid: false}),
	)

	It("should round-trip random blocks", func() {
		r := rand.New(rand.NewSource(1))
		for range 1000 {
			b := Block{
				Tag:     r.Uint32(),
				Recency: r.Uint32() >> 1,
				IsValid: r.Intn(2) == 1,
			}
			Expect(Unpack(Pack(b))).To(Equal(b))
		}
	})

	It("should place fields at the documented bits", func() {
		word := Pack(Block{Tag: 1, Recency: 1, IsValid: true})
		Expect(word).To(Equal(uint64(1)<<32 | 1<<1 | 1))
	})

	It("should report empty for an invalid line", func() {
		outcome, _ := line.TouchIfMatches(3, epoch)

		Expect(outcome).To(Equal(Empty))
		Expect(epoch.Load()).To(Equal(uint32(0)))
		Expect(line.Load()).To(Equal(Block{}))
	})

	It("should report occupied with the current recency", func() {
		line.Store(Block{Tag: 4, Recency: 12, IsValid: true})

		outcome, recency := line.TouchIfMatches(3, epoch)

		Expect(outcome).To(Equal(Occupied))
		Expect(recency).To(Equal(uint32(12)))
		Expect(epoch.Load()).To(Equal(uint32(0)))
		Expect(line.Load()).To(Equal(Block{Tag: 4, Recency: 12, IsValid: true}))
	})

	It("should refresh recency on a match", func() {
		epoch.Store(41)
		line.Store(Block{Tag: 3, Recency: 12, IsValid: true})

		outcome, _ := line.TouchIfMatches(3, epoch)

		Expect(outcome).To(Equal(Match))
		Expect(epoch.Load()).To(Equal(uint32(42)))
		Expect(line.Load()).To(Equal(Block{Tag: 3, Recency: 42, IsValid: true}))
	})
})

var _ = Describe("TagArray", func() {
	var (
		tags  *TagArray
		epoch *atomic.Uint32
	)

	BeforeEach(func() {
		tags = NewTagArray(8, 4)
		epoch = new(atomic.Uint32)
	})

	fill := func(setID int, blocks ...Block) {
		for i, b := range blocks {
			tags.Set(setID)[i].Store(b)
		}
	}

	It("should have a fixed shape", func() {
		Expect(tags.NumSets()).To(Equal(8))
		Expect(tags.NumWays()).To(Equal(4))
		Expect(tags.Set(7)).To(HaveLen(4))
	})

	It("should pick way 0 in an empty set", func() {
		way, hit := tags.Lookup(2, 5, epoch)

		Expect(hit).To(BeFalse())
		Expect(way).To(Equal(0))
	})

	It("should hit and stop scanning", func() {
		fill(1,
			Block{Tag: 1, Recency: 3, IsValid: true},
			Block{Tag: 5, Recency: 4, IsValid: true},
		)

		way, hit := tags.Lookup(1, 5, epoch)

		Expect(hit).To(BeTrue())
		Expect(way).To(Equal(1))
		Expect(epoch.Load()).To(Equal(uint32(1)))
	})

	It("should prefer the first empty line", func() {
		fill(0,
			Block{Tag: 1, Recency: 3, IsValid: true},
			Block{},
			Block{Tag: 2, Recency: 1, IsValid: true},
		)

		way, hit := tags.Lookup(0, 9, epoch)

		Expect(hit).To(BeFalse())
		Expect(way).To(Equal(1))
	})

	It("should stop comparing after the first older line", func() {
		fill(0,
			Block{Tag: 1, Recency: 10, IsValid: true},
			Block{Tag: 2, Recency: 5, IsValid: true},
			Block{Tag: 3, Recency: 1, IsValid: true},
			Block{Tag: 4, Recency: 7, IsValid: true},
		)

		way, hit := tags.Lookup(0, 9, epoch)

		Expect(hit).To(BeFalse())
		Expect(way).To(Equal(1))
	})

	It("should not let a later empty line displace an older line", func() {
		fill(0,
			Block{Tag: 1, Recency: 10, IsValid: true},
			Block{Tag: 2, Recency: 5, IsValid: true},
			Block{},
		)

		way, _ := tags.Lookup(0, 9, epoch)

		Expect(way).To(Equal(1))
	})

	It("should keep way 0 when nothing is older", func() {
		fill(3,
			Block{Tag: 1, Recency: 2, IsValid: true},
			Block{Tag: 2, Recency: 5, IsValid: true},
			Block{Tag: 3, Recency: 8, IsValid: true},
			Block{Tag: 4, Recency: 9, IsValid: true},
		)

		way, _ := tags.Lookup(3, 9, epoch)

		Expect(way).To(Equal(0))
	})

	It("should return the previous block on install", func() {
		fill(4, Block{Tag: 1, Recency: 2, IsValid: true})

		prev := tags.Install(4, 0, Block{Tag: 6, Recency: 8, IsValid: true})

		Expect(prev).To(Equal(Block{Tag: 1, Recency: 2, IsValid: true}))
		Expect(tags.Block(4, 0)).To(Equal(Block{Tag: 6, Recency: 8, IsValid: true}))
	})
})
