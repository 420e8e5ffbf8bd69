package workers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"assembly/contexts/assembly/voting-engine/adapters/memory"
	"assembly/contexts/assembly/voting-engine/application/commands"
	"assembly/contexts/assembly/voting-engine/domain/entities"
	domainerrors "assembly/contexts/assembly/voting-engine/domain/errors"
	"assembly/contexts/assembly/voting-engine/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmitAndReplayRaceRecordsOneBallot(t *testing.T) {
	const n = 16
	const participant = "529.982.247-25"

	store := memory.NewStore()
	seedItem(t, store)
	ctx := context.Background()
	item, err := store.GetAgendaItem(ctx, "item-1")
	require.NoError(t, err)

	admission := commands.BallotUseCase{
		Agenda:  store,
		Ballots: store,
		Clock:   fixedClock{now: testStart.Add(5 * time.Minute)},
		IDGen:   store,
	}
	replay := BallotReplayConsumer{Agenda: store, Ballots: store}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		admitted   int
		syncErrs   []error
		replayErrs []error
	)
	facts := make([]ports.EventEnvelope, n)
	for i := range facts {
		facts[i] = ballotFact(t, fmt.Sprintf("replayed-%d", i), participant, "NO")
	}
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, err := admission.Admit(ctx, item, participant, entities.ChoiceYes)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				admitted++
				return
			}
			syncErrs = append(syncErrs, err)
		}()
		go func(i int) {
			defer wg.Done()
			<-start
			err := replay.Handle(ctx, facts[i])
			if err != nil {
				mu.Lock()
				replayErrs = append(replayErrs, err)
				mu.Unlock()
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Empty(t, replayErrs)
	assert.LessOrEqual(t, admitted, 1)
	for _, err := range syncErrs {
		assert.ErrorIs(t, err, domainerrors.ErrAlreadyVoted)
	}
	assert.Len(t, store.ListBallots("item-1"), 1)

	total, err := store.CountByItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

// insertRaceStore reports no ballot on the existence check and then loses
// the insert to a concurrent writer.
type insertRaceStore struct {
	*memory.Store
	inserts int
}

func (s *insertRaceStore) ExistsByItemAndParticipant(context.Context, string, string) (bool, error) {
	return false, nil
}

func (s *insertRaceStore) InsertBallot(context.Context, entities.Ballot, ...ports.EventEnvelope) error {
	s.inserts++
	return fmt.Errorf("insert ballot: %w", domainerrors.ErrAlreadyVoted)
}

func TestBallotReplayAcknowledgesLostInsertRace(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store)
	ballots := &insertRaceStore{Store: store}
	metrics := &recordingMetrics{}
	consumer := BallotReplayConsumer{Agenda: store, Ballots: ballots, Metrics: metrics}

	require.NoError(t, consumer.Handle(context.Background(), ballotFact(t, "ballot-1", "111.444.777-35", "YES")))
	assert.Equal(t, 1, ballots.inserts)
	assert.Equal(t, []string{replayOutcomeDuplicate}, metrics.replayed)
	assert.Empty(t, store.ListBallots("item-1"))
}
