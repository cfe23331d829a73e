package tracing

import (
	"context"
	"path/filepath"

	"github.com/sarchlab/worksim/datarecording"
	"github.com/sarchlab/worksim/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		recorder   datarecording.DataRecorder
		path       string
		t          *DBTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)

		path = filepath.Join(GinkgoT().TempDir(), "trace")
		recorder = datarecording.New(path)
		t = NewDBTracer(timeTeller, recorder)
	})

	AfterEach(func() {
		Expect(recorder.Close()).To(Succeed())
		mockCtrl.Finish()
	})

	It("should create the tables", func() {
		Expect(recorder.ListTables()).To(Equal(
			[]string{TaskTableName, MilestoneTableName}))
	})

	It("should write finished tasks and milestones", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(10))
		t.StartTask(Task{ID: "1", Kind: "grading", What: "g1", Where: "w4"})

		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(12))
		t.StepTask(Task{ID: "1", Steps: []TaskStep{{What: "blocked"}}})

		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(20))
		t.EndTask(Task{ID: "1"})

		t.Terminate()

		reader, err := datarecording.NewReader(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		reader.MapTable(TaskTableName, TaskTableEntry{})
		reader.MapTable(MilestoneTableName, Milestone{})

		tasks, err := reader.Query(context.Background(), TaskTableName,
			datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(tasks).To(Equal([]any{&TaskTableEntry{
			ID:        "1",
			Kind:      "grading",
			What:      "g1",
			Location:  "w4",
			StartTime: 10,
			EndTime:   20,
		}}))

		milestones, err := reader.Query(context.Background(),
			MilestoneTableName, datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(milestones).To(HaveLen(1))
		m := milestones[0].(*Milestone)
		Expect(m.TaskID).To(Equal("1"))
		Expect(m.Location).To(Equal("w4"))
		Expect(m.Time).To(Equal(12.0))
	})

	It("should drop unfinished tasks on terminate", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(1))
		t.StartTask(Task{ID: "1", Kind: "running", What: "t1", Where: "w0"})

		t.Terminate()
		t.EndTask(Task{ID: "1"})
		t.Terminate()
	})
})
