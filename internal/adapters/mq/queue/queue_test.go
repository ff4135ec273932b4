package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ramezanov/storkeep/internal/domain/model"
)

func testJob(id, seller string) model.ReportJob {
	return model.ReportJob{
		ID:         id,
		SellerCell: seller,
		Worksheet:  "Отчет " + seller,
		Token:      "token",
		DateFrom:   time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
		DateTo:     time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC),
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	// Test empty queue
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	// Test enqueue
	job1 := testJob("job1", "B1")
	if !q.Enqueue(ctx, job1) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	// Test dequeue
	jobChan := q.Dequeue(ctx)
	job := <-jobChan
	if job.ID != "job1" {
		t.Errorf("expected job1, got %v", job.ID)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	// Fill the queue
	job1 := testJob("job1", "B1")
	job2 := testJob("job2", "C1")
	job3 := testJob("job3", "D1")

	if !q.Enqueue(ctx, job1) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, job2) {
		t.Error("expected enqueue to succeed")
	}

	// Try to enqueue when full
	if q.Enqueue(ctx, job3) {
		t.Error("expected enqueue to fail when full")
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	numGoroutines := 10
	numJobs := 100

	// Start producer goroutines
	done := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < numJobs; j++ {
				job := testJob(fmt.Sprintf("job%d_%d", id, j), fmt.Sprintf("B%d", id))
				for !q.Enqueue(ctx, job) {
					time.Sleep(time.Millisecond)
				}
			}
			done <- true
		}(i)
	}

	// Start consumer goroutines
	consumed := make(chan string, numGoroutines*numJobs)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			jobChan := q.Dequeue(ctx)
			for job := range jobChan {
				consumed <- job.ID
			}
		}()
	}

	// Wait for producers to finish
	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	// Wait a bit for consumers to process
	time.Sleep(100 * time.Millisecond)

	// Check final queue length
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	// Enqueue some jobs
	job1 := testJob("job1", "B1")
	job2 := testJob("job2", "C1")

	if !q.Enqueue(ctx, job1) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, job2) {
		t.Error("expected enqueue to succeed")
	}

	// Check initial state
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	// Close the queue
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}

	// Check closed state
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}

	// Try to enqueue after closing (should fail)
	if q.Enqueue(ctx, job1) {
		t.Error("expected enqueue to fail after closing")
	}

	// Dequeue channel should be closed
	jobChan := q.Dequeue(ctx)

	// Wait for channel to be closed
	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case _, ok := <-jobChan:
			if !ok {
				// Channel is closed, which is expected
				goto channelClosed
			}
		case <-timeout:
			t.Error("expected dequeue channel to be closed within timeout")
			return
		}
	}
channelClosed:

	// Close again should not error
	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
