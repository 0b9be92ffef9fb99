package server

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConsoleLogger_BasicLogging(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewConsoleLogger(zap.New(core).Named("renderer"), zapcore.InfoLevel, messageChan)

	logger.Info("Test log message", zap.Int("pass", 1))

	select {
	case msg := <-messageChan:
		if msg.Message != "Test log message" {
			t.Errorf("Expected message 'Test log message', got '%s'", msg.Message)
		}
		if msg.Level != "info" {
			t.Errorf("Expected level 'info', got '%s'", msg.Level)
		}
		if msg.Logger != "renderer" {
			t.Errorf("Expected logger 'renderer', got '%s'", msg.Logger)
		}
		if time.Since(msg.Timestamp) > time.Second {
			t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for console message")
	}

	// the base logger still gets the entry
	if logs.Len() != 1 {
		t.Errorf("Expected 1 entry on the base logger, got %d", logs.Len())
	}
}

func TestConsoleLogger_MultipleMessages(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewConsoleLogger(zap.NewNop(), zapcore.InfoLevel, messageChan)

	messages := []string{"Message 1", "Message 2", "Message 3"}
	for _, msg := range messages {
		logger.Info(msg)
	}

	for i, expected := range messages {
		select {
		case msg := <-messageChan:
			if msg.Message != expected {
				t.Errorf("Message %d: expected '%s', got '%s'", i, expected, msg.Message)
			}
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("Timeout waiting for message %d", i+1)
		}
	}
}

func TestConsoleLogger_LevelFilter(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewConsoleLogger(zap.NewNop(), zapcore.InfoLevel, messageChan)

	logger.Debug("region complete")
	logger.Warn("slow pass")

	select {
	case msg := <-messageChan:
		if msg.Message != "slow pass" || msg.Level != "warn" {
			t.Errorf("Expected the warning only, got %+v", msg)
		}
	default:
		t.Fatal("Expected a console message")
	}
	select {
	case msg := <-messageChan:
		t.Errorf("Unexpected extra message %+v", msg)
	default:
	}
}

func TestConsoleLogger_ChannelFull(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 1)
	logger := NewConsoleLogger(zap.NewNop(), zapcore.InfoLevel, messageChan)

	// The second message must be dropped, not block.
	done := make(chan struct{})
	go func() {
		logger.Info("Message 1")
		logger.Info("Message 2")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Logger blocked on a full channel")
	}

	if msg := <-messageChan; msg.Message != "Message 1" {
		t.Errorf("Expected 'Message 1', got '%s'", msg.Message)
	}
}
