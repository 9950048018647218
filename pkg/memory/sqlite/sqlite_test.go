package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/mnemo/pkg/memory"
	"github.com/papercomputeco/mnemo/pkg/memory/entdriver"
	"github.com/papercomputeco/mnemo/pkg/memory/sqlite"
)

func testRecord(id, topic string) memory.Record {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	info := memory.InfoBlock{Key: []string{topic}, Aux: []string{}, Noise: []string{}}
	return memory.Record{
		ID:         id,
		Topic:      topic,
		Content:    topic,
		Keywords:   []string{topic},
		CreateTime: at,
		UpdateTime: at,
		Info:       &info,
	}
}

var _ = Describe("Driver", func() {
	var (
		ctx    context.Context
		dbPath string
		driver *sqlite.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		dbPath = filepath.Join(GinkgoT().TempDir(), "memory.sqlite")

		var err error
		driver, err = sqlite.NewDriver(ctx, dbPath, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if driver != nil {
			driver.Close()
		}
	})

	It("starts empty", func() {
		recs, err := driver.ReadAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(BeEmpty())
	})

	It("returns records in append order", func() {
		Expect(driver.Append(ctx, testRecord("b", "second topic"))).To(Succeed())
		Expect(driver.Append(ctx, testRecord("a", "first topic"))).To(Succeed())

		recs, err := driver.ReadAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(2))
		Expect(recs[0].ID).To(Equal("b"))
		Expect(recs[1].ID).To(Equal("a"))
		Expect(recs[1].Info.Key).To(Equal([]string{"first topic"}))
		Expect(recs[1].CreateTime.Equal(testRecord("a", "").CreateTime)).To(BeTrue())
	})

	It("survives reopening", func() {
		Expect(driver.Append(ctx, testRecord("a", "kept"))).To(Succeed())
		Expect(driver.Close()).To(Succeed())

		var err error
		driver, err = sqlite.NewDriver(ctx, dbPath, nil)
		Expect(err).NotTo(HaveOccurred())

		recs, err := driver.ReadAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(1))
		Expect(recs[0].Topic).To(Equal("kept"))
	})

	It("migrates the memory table with an auto-increment sequence", func() {
		db, err := sql.Open("sqlite3", dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()

		rows, err := db.Query("SELECT name, pk FROM pragma_table_info('" + entdriver.Table + "') ORDER BY cid")
		Expect(err).NotTo(HaveOccurred())
		defer rows.Close()

		columns := map[string]int{}
		for rows.Next() {
			var (
				name string
				pk   int
			)
			Expect(rows.Scan(&name, &pk)).To(Succeed())
			columns[name] = pk
		}
		Expect(rows.Err()).NotTo(HaveOccurred())
		Expect(columns).To(Equal(map[string]int{"seq": 1, "id": 0, "topic": 0, "payload": 0}))

		Expect(driver.Append(ctx, testRecord("a", "one"))).To(Succeed())
		Expect(driver.Append(ctx, testRecord("b", "two"))).To(Succeed())

		var seqs []int64
		seqRows, err := db.Query("SELECT seq FROM " + entdriver.Table + " ORDER BY seq")
		Expect(err).NotTo(HaveOccurred())
		defer seqRows.Close()
		for seqRows.Next() {
			var seq int64
			Expect(seqRows.Scan(&seq)).To(Succeed())
			seqs = append(seqs, seq)
		}
		Expect(seqs).To(HaveLen(2))
		Expect(seqs[1]).To(BeNumerically(">", seqs[0]))
	})

	It("skips rows whose payload does not decode", func() {
		Expect(driver.Append(ctx, testRecord("a", "good"))).To(Succeed())

		db, err := sql.Open("sqlite3", dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()
		_, err = db.Exec("INSERT INTO "+entdriver.Table+" (id, topic, payload) VALUES (?, ?, ?)", "bad", "bad", "{not json")
		Expect(err).NotTo(HaveOccurred())

		recs, err := driver.ReadAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(1))
		Expect(recs[0].ID).To(Equal("a"))
	})

	It("clears every record", func() {
		Expect(driver.Append(ctx, testRecord("a", "gone"))).To(Succeed())
		Expect(driver.Clear(ctx)).To(Succeed())

		recs, err := driver.ReadAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(BeEmpty())
	})

	It("works in memory", func() {
		mem, err := sqlite.NewDriver(ctx, ":memory:", nil)
		Expect(err).NotTo(HaveOccurred())
		defer mem.Close()

		Expect(mem.Append(ctx, testRecord("a", "ephemeral"))).To(Succeed())
		recs, err := mem.ReadAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(1))
	})

	It("backs a memory store", func() {
		store, err := memory.NewStore(memory.StoreConfig{Driver: driver})
		Expect(err).NotTo(HaveOccurred())

		saved, err := store.Save(ctx, testRecord("a", "through the store"))
		Expect(err).NotTo(HaveOccurred())
		Expect(saved).To(BeTrue())

		latest, err := store.Latest(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(latest.Topic).To(Equal("through the store"))
	})
})
