package servecmder

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Rahi-padwal/linkRecall/api/search"
	"github.com/Rahi-padwal/linkRecall/pkg/config"
	"github.com/Rahi-padwal/linkRecall/pkg/logger"
	storageutils "github.com/Rahi-padwal/linkRecall/pkg/storage/utils"
)

var _ = Describe("storageOptions", func() {
	var (
		cfg       *config.Config
		configDir string
	)

	BeforeEach(func() {
		cfg = config.NewDefaultConfig()
		configDir = filepath.Join(GinkgoT().TempDir(), ".linkrecall")
	})

	It("places the sqlite database in the linkrecall directory by default", func() {
		opts, err := storageOptions(cfg, configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.ProviderType).To(Equal(storageutils.ProviderSQLite))
		Expect(opts.SQLitePath).To(Equal(filepath.Join(configDir, config.DefaultSQLiteFile)))
		Expect(opts.Dimensions).To(Equal(768))
	})

	It("places the badger directory in the linkrecall directory by default", func() {
		cfg.Storage.Provider = storageutils.ProviderBadger
		opts, err := storageOptions(cfg, configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.BadgerPath).To(Equal(filepath.Join(configDir, config.DefaultBadgerDir)))
	})

	It("keeps an explicit path", func() {
		cfg.Storage.SQLitePath = "/var/lib/linkrecall/links.db"
		opts, err := storageOptions(cfg, configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.SQLitePath).To(Equal("/var/lib/linkrecall/links.db"))

		_, err = os.Stat(configDir)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("does not touch the filesystem for postgres", func() {
		cfg.Storage.Provider = storageutils.ProviderPostgres
		cfg.Storage.PostgresDSN = "postgres://localhost/linkrecall"
		opts, err := storageOptions(cfg, configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.PostgresDSN).To(Equal("postgres://localhost/linkrecall"))

		_, err = os.Stat(configDir)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})

var _ = Describe("services", func() {
	var (
		svc *services
		cfg *config.Config
	)

	BeforeEach(func() {
		cfg = config.NewDefaultConfig()
		cfg.Storage.Provider = storageutils.ProviderMemory
		cfg.Embedding.Dimensions = 4

		var err error
		svc, err = newServices(context.Background(), cfg, "", logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		svc.Close()
	})

	It("builds the searcher with the configured policy", func() {
		Expect(svc.searcher.Policy()).To(Equal(search.Policy{MaxDistance: 0.5, Limit: 5}))
		Expect(svc.pool.Stats().Workers).To(Equal(cfg.Ingest.Workers))
	})

	It("applies a reloaded search policy", func() {
		reloaded := config.NewDefaultConfig()
		reloaded.Search.MaxDistance = 0.3
		reloaded.Search.Limit = 10

		svc.applyConfig(reloaded)
		Expect(svc.searcher.Policy()).To(Equal(search.Policy{MaxDistance: 0.3, Limit: 10}))
	})

	It("ignores an invalid reloaded policy", func() {
		reloaded := config.NewDefaultConfig()
		reloaded.Search.MaxDistance = 5

		svc.applyConfig(reloaded)
		Expect(svc.searcher.Policy()).To(Equal(search.Policy{MaxDistance: 0.5, Limit: 5}))
	})

	It("rejects an unknown storage provider", func() {
		cfg.Storage.Provider = "cassandra"
		_, err := newServices(context.Background(), cfg, "", logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("unsupported storage provider")))
	})
})
