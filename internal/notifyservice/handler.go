package notifyservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/exp/rand"

	"github.com/calliope-press/inkstone/internal/common"
)

func NewNotifyService(mb common.MessageConsumer, host, username, password, sender, recipient string, port int, logger *slog.Logger) *NotifyService {
	ctx, cancel := context.WithCancel(context.Background())
	return &NotifyService{
		mb:        mb,
		m:         NewMailer(host, port, username, password, sender, NewTemplate()),
		recipient: recipient,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SendCommentNotifications consumes comment-submitted events and emails the
// moderation recipient. Delivery is retried with jittered backoff; a message
// is acked either way so a dead SMTP host cannot wedge the queue.
func (s *NotifyService) SendCommentNotifications() {
	msgs, err := s.mb.Consume(common.CommentSubmittedKey, common.ContentExchange, common.CommentSubmittedQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var data struct {
					CommentID    int    `json:"comment_id"`
					ArticleID    int    `json:"article_id"`
					ArticleTitle string `json:"article_title"`
					Author       string `json:"author"`
					Body         string `json:"body"`
				}

				err := json.Unmarshal(msg.Body, &data)
				if err != nil {
					s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
					continue
				}

				payload := struct {
					ArticleTitle string
					Author       string
					Body         string
				}{
					ArticleTitle: data.ArticleTitle,
					Author:       data.Author,
					Body:         data.Body,
				}

				// using exponential backoff with jitter
				const maxRetries = 5
				const baseDelay = 500 * time.Millisecond

				var attempt int
				for attempt = 0; attempt < maxRetries; attempt++ {
					err = s.m.send(s.recipient, payload, "comment_notification.html")
					if err == nil {
						s.logger.Info("comment notification sent", slog.Int("comment_id", data.CommentID))
						msg.Ack(false)
						break
					}

					delay := time.Duration(rand.Int63n(int64(baseDelay) << uint(attempt)))
					s.logger.Info("delaying comment notification", slog.Int("comment_id", data.CommentID), slog.Int("attempt", attempt), slog.Duration("delay", delay))
					time.Sleep(delay)
				}

				if attempt == maxRetries {
					s.logger.Error("could not send comment notification", slog.Int("comment_id", data.CommentID))
					msg.Ack(false)
				}

			case <-s.ctx.Done():
				s.logger.Info("stopping SendCommentNotifications due to context cancellation")
				return
			}
		}
	}()
}

func (s *NotifyService) Close() {
	s.cancel()
}
