package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/ai-assistant/internal/bootstrap"
	"github.com/suPer8Hu/ai-assistant/internal/chat"
	"github.com/suPer8Hu/ai-assistant/internal/config"
	"github.com/suPer8Hu/ai-assistant/internal/logx"
	"github.com/suPer8Hu/ai-assistant/internal/store/rabbitmq"
	"gorm.io/gorm"
)

const (
	maxAttempts = 3
	retryDelay  = 5 * time.Second
)

func main() {
	logx.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.RabbitURL == "" {
		log.Fatalf("RABBIT_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()
	if cfg.TranscriptBackend != "db" {
		log.Printf("warning: TRANSCRIPT_BACKEND=%s is not shared with the server process; use db", cfg.TranscriptBackend)
	}
	if !app.SharedTurnLock {
		log.Printf("warning: REDIS_ADDR unreachable or unset; turns for one user may interleave with the server")
	}

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	// strict concurrency control
	concurrency := cfg.WorkerConcurrency
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	// retries are published from the worker goroutines; amqp channels are not
	// safe for concurrent publishes, so they get their own.
	pubCh, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit publish channel: %v", err)
	}
	defer pubCh.Close()
	pub := rabbitmq.NewPublisherOnChannel(pubCh, cfg.RabbitQueue)
	var pubMu sync.Mutex

	log.Printf("worker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				m, err := rabbitmq.DecodeJob(d.Body)
				if err != nil {
					log.Printf("worker=%d bad message: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				attempt := rabbitmq.Attempt(d.Headers)
				err = handleJob(ctx, app.Service, app.Repo, m.JobID)
				if err == nil {
					if err := d.Ack(false); err != nil {
						log.Printf("worker=%d ack failed job=%s err=%v", workerID, m.JobID, err)
					}
					continue
				}

				log.Printf("worker=%d job %s attempt=%d failed cost=%s err=%v", workerID, m.JobID, attempt, time.Since(start), err)
				if !retryable(err) || attempt >= maxAttempts {
					_ = app.Repo.MarkJobFailed(ctx, m.JobID, err.Error())
					_ = d.Nack(false, false) // -> DLQ
					continue
				}

				pubMu.Lock()
				perr := pub.PublishRetry(ctx, m.JobID, attempt+1, retryDelay)
				pubMu.Unlock()
				if perr != nil {
					log.Printf("worker=%d retry publish failed job=%s err=%v", workerID, m.JobID, perr)
					_ = app.Repo.MarkJobFailed(ctx, m.JobID, err.Error())
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}

// retryable is false for jobs that can never succeed.
func retryable(err error) bool {
	return !errors.Is(err, gorm.ErrRecordNotFound)
}

func handleJob(ctx context.Context, svc *chat.Service, repo *chat.Repo, jobID string) error {
	jobStart := time.Now()

	_ = repo.UpdateJobStatusRunning(ctx, jobID)

	j, err := repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}
	if j.Status == chat.JobSucceeded {
		// redelivery of a finished job
		return nil
	}

	var att *chat.Attachment
	if j.FilePath != nil {
		att = &chat.Attachment{Path: *j.FilePath}
		if j.FileURL != nil {
			att.URL = *j.FileURL
		}
	}

	t0 := time.Now()
	msgs, err := svc.HandleTurn(ctx, j.UserID, j.Prompt, att)
	turnCost := time.Since(t0)
	if err != nil {
		return err
	}

	var botMsgID string
	if n := len(msgs); n > 0 {
		botMsgID = msgs[n-1].ID
	}
	if err := repo.MarkJobSucceeded(ctx, jobID, botMsgID); err != nil {
		return err
	}

	if total := time.Since(jobStart); total > 2*time.Second {
		log.Printf("job_timing job=%s user=%s turn=%s total=%s", jobID, j.UserID, turnCost, total)
	}
	return nil
}
