package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/davorint/amatlan-booking/internal/pkg/logger"
	"github.com/davorint/amatlan-booking/internal/pkg/metrics"
)

// CapacityRecounter は開催枠カウンタの再計算インターフェース
type CapacityRecounter interface {
	ListActiveIDs(ctx context.Context) ([]string, error)
	Recount(ctx context.Context, id string) (bool, error)
}

// CapacityReconciler は予約数カウンタのずれを定期的に修復するワーカー
// カウンタと実予約の集計が一致しない開催枠を集計値に合わせて更新する
type CapacityReconciler struct {
	sessionRepo CapacityRecounter
	metrics     *metrics.Metrics
	interval    time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewCapacityReconciler は新しいリコンサイラーを作成
// mはnil可（メトリクスを無効化）
func NewCapacityReconciler(
	sr CapacityRecounter,
	m *metrics.Metrics,
	interval time.Duration,
) *CapacityReconciler {
	return &CapacityReconciler{
		sessionRepo: sr,
		metrics:     m,
		interval:    interval,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start はリコンサイラーを開始
func (r *CapacityReconciler) Start(ctx context.Context) {
	logger.Info("定員カウンタリコンサイラー開始",
		zap.Duration("interval", r.interval),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("定員カウンタリコンサイラー停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("定員カウンタリコンサイラー停止（シグナル受信）")
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

// Stop はリコンサイラーを停止
func (r *CapacityReconciler) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

// reconcile は全ての受付中開催枠のカウンタを検査・修復する
func (r *CapacityReconciler) reconcile(ctx context.Context) {
	log := logger.Get()
	log.Debug("定員カウンタの検査開始")

	ids, err := r.sessionRepo.ListActiveIDs(ctx)
	if err != nil {
		log.Error("開催枠一覧の取得失敗", zap.Error(err))
		return
	}

	repaired := 0
	for _, id := range ids {
		fixed, err := r.sessionRepo.Recount(ctx, id)
		if err != nil {
			log.Error("カウンタ再計算失敗",
				zap.String("session_id", id),
				zap.Error(err),
			)
			continue
		}
		if fixed {
			repaired++
			log.Warn("カウンタのずれを修復", zap.String("session_id", id))
			if r.metrics != nil {
				r.metrics.CapacityDriftRepairsTotal.Inc()
			}
		}
	}

	if repaired > 0 {
		log.Info("定員カウンタ修復完了", zap.Int("repaired", repaired))
	} else {
		log.Debug("カウンタのずれなし")
	}
}
