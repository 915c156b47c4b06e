package gpu

import (
	"errors"
	"testing"
)

func TestFrameSyncCounter(t *testing.T) {
	device, queue := openNoopDevice(t)
	fs, err := NewFrameSync(device, queue)
	if err != nil {
		t.Fatalf("NewFrameSync: %v", err)
	}
	defer fs.Destroy()

	if fs.Value() != 1 {
		t.Fatalf("initial value = %d, want 1", fs.Value())
	}
	if fs.Fence() == nil {
		t.Fatal("fence is nil")
	}
	for want := uint64(1); want <= 3; want++ {
		got, err := fs.Submit(nil)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if got != want {
			t.Errorf("Submit signaled %d, want %d", got, want)
		}
	}
	if fs.Value() != 4 {
		t.Errorf("value after 3 submits = %d, want 4", fs.Value())
	}
	if err := fs.WaitForPrevious(); err != nil {
		t.Fatalf("WaitForPrevious: %v", err)
	}
	if fs.Waits() != 0 {
		t.Errorf("waits = %d, want 0 for a synchronous queue", fs.Waits())
	}
}

func TestFrameSyncWaitBlocksUntilDrained(t *testing.T) {
	device, queue := newLaggingDevice()
	fs, err := NewFrameSync(device, queue)
	if err != nil {
		t.Fatalf("NewFrameSync: %v", err)
	}

	if _, err := fs.Submit(nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if fs.Completed() >= fs.Signaled() {
		t.Fatalf("completed %d already reached signaled %d", fs.Completed(), fs.Signaled())
	}
	if err := fs.WaitForPrevious(); err != nil {
		t.Fatalf("WaitForPrevious: %v", err)
	}
	if fs.Waits() != 1 || device.idles != 1 {
		t.Errorf("waits = %d, idles = %d, want 1 and 1", fs.Waits(), device.idles)
	}
	if fs.Completed() < fs.Signaled() {
		t.Errorf("completed %d < signaled %d after wait", fs.Completed(), fs.Signaled())
	}

	// Nothing new submitted: no second block.
	if err := fs.WaitForPrevious(); err != nil {
		t.Fatalf("WaitForPrevious: %v", err)
	}
	if fs.Waits() != 1 {
		t.Errorf("waits = %d after idle wait, want 1", fs.Waits())
	}
}

func TestFrameSyncWaitIncomplete(t *testing.T) {
	device, queue := newLaggingDevice()
	device.stuck = true
	fs, err := NewFrameSync(device, queue)
	if err != nil {
		t.Fatalf("NewFrameSync: %v", err)
	}
	if _, err := fs.Submit(nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := fs.WaitForPrevious(); !errors.Is(err, ErrSyncIncomplete) {
		t.Errorf("WaitForPrevious error = %v, want ErrSyncIncomplete", err)
	}
}

func TestFrameSyncSubmitError(t *testing.T) {
	device, queue := newLaggingDevice()
	queue.fail = errors.New("device removed")
	fs, err := NewFrameSync(device, queue)
	if err != nil {
		t.Fatalf("NewFrameSync: %v", err)
	}
	if _, err := fs.Submit(nil); !errors.Is(err, queue.fail) {
		t.Errorf("Submit error = %v, want wrapped %v", err, queue.fail)
	}
	if fs.Value() != 1 {
		t.Errorf("value advanced to %d on failed submit", fs.Value())
	}
}

func TestFrameSyncSignalKeepsHighestIndex(t *testing.T) {
	device, queue := openNoopDevice(t)
	fs, err := NewFrameSync(device, queue)
	if err != nil {
		t.Fatalf("NewFrameSync: %v", err)
	}
	fs.Signal(5)
	fs.Signal(3)
	if fs.Signaled() != 5 {
		t.Errorf("signaled = %d, want 5", fs.Signaled())
	}
	if fs.Value() != 3 {
		t.Errorf("value = %d, want 3", fs.Value())
	}
}

func TestFrameSyncWaitsOnSubmissionIndex(t *testing.T) {
	device, queue := newLaggingDevice()
	fs, err := NewFrameSync(device, queue)
	if err != nil {
		t.Fatalf("NewFrameSync: %v", err)
	}
	defer fs.Destroy()

	// Earlier work on the queue puts its index well ahead of the counter.
	queue.submitted, queue.completed = 9, 9
	if _, err := fs.Submit(nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if fs.Value() != 2 || fs.Signaled() != 10 {
		t.Fatalf("value/signaled = %d/%d, want 2/10", fs.Value(), fs.Signaled())
	}
	if err := fs.WaitForPrevious(); err != nil {
		t.Fatalf("WaitForPrevious: %v", err)
	}
	if fs.Waits() != 1 || fs.Completed() != 10 {
		t.Errorf("waits = %d, completed = %d, want 1 wait to reach 10", fs.Waits(), fs.Completed())
	}
}
