package cache_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/r5sim/timing/cache"
)

var _ = Describe("HierarchyConfig", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "cache-config-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	It("should provide valid defaults", func() {
		config := cache.DefaultHierarchyConfig()
		Expect(config.Validate()).To(Succeed())
	})

	It("should round-trip through a JSON file", func() {
		path := filepath.Join(tempDir, "cache.json")

		config := cache.DefaultHierarchyConfig()
		config.L1D.Size = 64 * 1024
		Expect(config.SaveConfig(path)).To(Succeed())

		loaded, err := cache.LoadHierarchyConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.L1D.Size).To(Equal(64 * 1024))
		Expect(loaded.L1I).To(Equal(config.L1I))
	})

	It("should apply defaults for fields absent from the file", func() {
		path := filepath.Join(tempDir, "partial.json")
		err := os.WriteFile(path, []byte(`{"l1d": {"size": 16384, "associativity": 4, "block_size": 64}}`), 0644)
		Expect(err).NotTo(HaveOccurred())

		loaded, err := cache.LoadHierarchyConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.L1D.Size).To(Equal(16384))
		Expect(loaded.L1I).To(Equal(cache.DefaultL1IConfig()))
	})

	It("should return error for a missing file", func() {
		_, err := cache.LoadHierarchyConfig(filepath.Join(tempDir, "missing.json"))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("failed to read"))
	})

	It("should return error for malformed JSON", func() {
		path := filepath.Join(tempDir, "bad.json")
		err := os.WriteFile(path, []byte("{not json"), 0644)
		Expect(err).NotTo(HaveOccurred())

		_, err = cache.LoadHierarchyConfig(path)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("failed to parse"))
	})

	It("should reject a geometry that does not divide evenly", func() {
		config := cache.DefaultHierarchyConfig()
		config.L1D.Size = 1000
		Expect(config.Validate()).NotTo(Succeed())
	})
})

var _ = Describe("Observer", func() {
	It("should accumulate latency from observed accesses", func() {
		config := cache.Config{
			Size:          4 * 1024,
			Associativity: 4,
			BlockSize:     64,
			HitLatency:    1,
			MissLatency:   10,
		}
		obs := cache.NewObserver(cache.New(config, nil))

		obs.Access(false, 0x1000, 8) // miss
		obs.Access(false, 0x1000, 8) // hit
		obs.Access(true, 0x1008, 8)  // hit, same line

		Expect(obs.Cycles()).To(Equal(uint64(12)))

		stats := obs.Stats()
		Expect(stats.Misses).To(Equal(uint64(1)))
		Expect(stats.Hits).To(Equal(uint64(2)))
	})
})
