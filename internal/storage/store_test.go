package storage_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/demsim/internal/config"
	"github.com/san-kum/demsim/internal/dynamo"
	"github.com/san-kum/demsim/internal/metrics"
	"github.com/san-kum/demsim/internal/storage"
)

var series = []metrics.Sample{
	{Time: 0, PlateZ: 0.001, MeanHeight: 0.0025, KineticEnergy: 0, Contacts: 3},
	{Time: 0.01, PlateZ: 0.0011, MeanHeight: 0.00251, KineticEnergy: 1.5e-7, Contacts: 2.75},
}

var _ = Describe("Store", func() {
	var (
		dir string
		st  *storage.Store
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		st = storage.New(filepath.Join(dir, "runs"))
		Expect(st.Init()).To(Succeed())
	})

	It("round-trips metadata and series", func() {
		cfg := config.DefaultConfig()
		id, err := st.Save(storage.RunMetadata{
			Experiment: "constant",
			Seed:       42,
			Dt:         1e-5,
			Steps:      2000,
			Particles:  120,
			Metrics:    map[string]float64{"mean_height": 0.0025},
			Config:     cfg,
		}, series)
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(HavePrefix("constant_"))

		meta, err := st.Load(id)
		Expect(err).NotTo(HaveOccurred())
		Expect(meta.ID).To(Equal(id))
		Expect(meta.Seed).To(Equal(int64(42)))
		Expect(meta.Particles).To(Equal(120))
		Expect(meta.Metrics).To(HaveKeyWithValue("mean_height", 0.0025))
		Expect(meta.Config.Timestep).To(Equal(cfg.Timestep))
		Expect(meta.Timestamp).To(BeTemporally("~", time.Now(), time.Minute))

		got, err := st.LoadSeries(id)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(series))
	})

	It("gives every run its own id", func() {
		a, err := st.Save(storage.RunMetadata{}, nil)
		Expect(err).NotTo(HaveOccurred())
		b, err := st.Save(storage.RunMetadata{}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(HavePrefix("run_"))
		Expect(a).NotTo(Equal(b))

		got, err := st.LoadSeries(a)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(BeEmpty())
	})

	It("lists runs newest first and skips foreign directories", func() {
		first, err := st.Save(storage.RunMetadata{Experiment: "constant"}, series)
		Expect(err).NotTo(HaveOccurred())
		time.Sleep(10 * time.Millisecond)
		second, err := st.Save(storage.RunMetadata{Experiment: "ramp"}, series)
		Expect(err).NotTo(HaveOccurred())
		Expect(os.MkdirAll(filepath.Join(dir, "runs", "scratch"), 0755)).To(Succeed())

		runs, err := st.List()
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(2))
		Expect(runs[0].ID).To(Equal(second))
		Expect(runs[1].ID).To(Equal(first))
	})

	It("lists nothing for a missing directory", func() {
		runs, err := storage.New(filepath.Join(dir, "absent")).List()
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(BeEmpty())
	})

	It("reports an unwritable store as unavailable", func() {
		blocker := filepath.Join(dir, "file")
		Expect(os.WriteFile(blocker, []byte("x"), 0644)).To(Succeed())
		_, err := storage.New(blocker).Save(storage.RunMetadata{}, series)
		Expect(errors.Is(err, dynamo.ErrResourceUnavailable)).To(BeTrue())
	})

	It("exports a run as one JSON document", func() {
		id, err := st.Save(storage.RunMetadata{Experiment: "ramp", Amplitude: 2e-4}, series)
		Expect(err).NotTo(HaveOccurred())

		var buf bytes.Buffer
		Expect(st.Export(&buf, id)).To(Succeed())

		var out storage.ExportData
		Expect(json.Unmarshal(buf.Bytes(), &out)).To(Succeed())
		Expect(out.Run.ID).To(Equal(id))
		Expect(out.Run.Amplitude).To(Equal(2e-4))
		Expect(out.Count).To(Equal(2))
		Expect(out.Series).To(Equal(series))
	})
})

var _ = Describe("Series CSV", func() {
	It("writes a header and one row per sample", func() {
		var buf bytes.Buffer
		Expect(storage.WriteSeries(&buf, series)).To(Succeed())
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(HaveLen(3))
		Expect(lines[0]).To(Equal("time,plate_z,mean_height,kinetic_energy,contacts"))
		Expect(lines[1]).To(Equal("0,0.001,0.0025,0,3"))
	})

	It("rejects malformed rows", func() {
		_, err := storage.ReadSeries(strings.NewReader("time,plate_z,mean_height,kinetic_energy,contacts\n0,x,0,0,0\n"))
		Expect(err).To(MatchError(ContainSubstring("row 2")))

		_, err = storage.ReadSeries(strings.NewReader("1,2\n"))
		Expect(err).To(HaveOccurred())

		_, err = storage.ReadSeries(strings.NewReader(""))
		Expect(err).To(HaveOccurred())
	})
})
