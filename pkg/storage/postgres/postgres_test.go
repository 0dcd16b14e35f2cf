package postgres_test

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Rahi-padwal/linkRecall/pkg/logger"
	"github.com/Rahi-padwal/linkRecall/pkg/storage"
	"github.com/Rahi-padwal/linkRecall/pkg/storage/postgres"
	"github.com/Rahi-padwal/linkRecall/pkg/storage/storagetest"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("LINKRECALL_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("LINKRECALL_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

// resetDatabase drops the tables so each spec gets a schema sized to the
// test dimension.
func resetDatabase(ctx context.Context, dsn string) {
	pool, err := pgxpool.New(ctx, dsn)
	Expect(err).NotTo(HaveOccurred())
	defer pool.Close()

	_, err = pool.Exec(ctx, `DROP TABLE IF EXISTS links; DROP TABLE IF EXISTS users;`)
	Expect(err).NotTo(HaveOccurred())
}

var _ = storagetest.DescribeDriver("postgres", func() storage.Driver {
	ctx := context.Background()
	dsn := connStr()
	resetDatabase(ctx, dsn)

	d, err := postgres.NewDriver(ctx, postgres.Config{ConnString: dsn, Dimensions: storagetest.Dimensions}, logger.Nop())
	Expect(err).NotTo(HaveOccurred())
	return d
})

var _ = Describe("NewDriver", func() {
	It("requires a connection string", func() {
		_, err := postgres.NewDriver(context.Background(), postgres.Config{}, logger.Nop())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("connection string is required"))
	})
})
