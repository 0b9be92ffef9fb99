package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/df07/go-packet-raytracer/pkg/core"
)

// RegionTask asks a worker to render one more pass of a region.
type RegionTask struct {
	Region     *Region
	PassNumber int
	TaskID     int // index of the region, for routing the result
}

// RegionResult reports a finished RegionTask.
type RegionResult struct {
	TaskID int
	Error  error
}

// WorkerPool renders regions in parallel. All workers share one Renderer;
// regions never overlap so their framebuffer writes are disjoint.
type WorkerPool struct {
	taskQueue   chan RegionTask
	resultQueue chan RegionResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
	startOnce   sync.Once
	stopOnce    sync.Once
}

// Worker pulls region tasks off the shared queue.
type Worker struct {
	ID          int
	scene       *core.Scene
	renderer    Renderer
	taskQueue   chan RegionTask
	resultQueue chan RegionResult
}

// NewWorkerPool creates numWorkers workers (0 = CPU count) with queues large
// enough to hold maxTasks tasks without blocking.
func NewWorkerPool(scene *core.Scene, r Renderer, maxTasks, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan RegionTask, maxTasks),
		resultQueue: make(chan RegionResult, maxTasks),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			scene:       scene,
			renderer:    r,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}
	return wp
}

// Start launches the workers. Calls after the first are no-ops.
func (wp *WorkerPool) Start() {
	wp.startOnce.Do(func() {
		for _, worker := range wp.workers {
			wp.wg.Add(1)
			go worker.run(&wp.wg)
		}
	})
}

// Stop drains the queue, waits for the workers and closes the results.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.taskQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
	})
}

func (wp *WorkerPool) SubmitTask(task RegionTask) {
	wp.taskQueue <- task
}

// GetResult blocks for the next result; ok is false once the pool is stopped.
func (wp *WorkerPool) GetResult() (RegionResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		w.resultQueue <- RegionResult{
			TaskID: task.TaskID,
			Error:  w.render(task),
		}
	}
}

// render turns a panic inside the renderer into an error so one bad region
// does not take the process down.
func (w *Worker) render(task RegionTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("region %d pass %d: %v", task.Region.ID, task.PassNumber, r)
		}
	}()
	w.renderer.RenderScene(w.scene, task.Region.Context)
	return nil
}
