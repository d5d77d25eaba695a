package runtime_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/seedbed/internal/logging"
	"github.com/aretw0/seedbed/internal/runtime"
	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/fake"
	"github.com/aretw0/seedbed/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const bluth = `
- object: Account
  nickname: bluth_co
  just_once: true
  fields:
    Name: The Bluth Company
- object: Contact
  nickname: Michael
  just_once: true
  fields:
    FirstName: Michael
    AccountId:
      reference: bluth_co
- object: Opportunity
  count: 2
  fields:
    Name: ${{ fake.catch_phrase }}
    AccountId:
      reference: bluth_co
    ContactId:
      reference: Michael
`

func newEngine(opts ...runtime.EngineOption) *runtime.Engine {
	opts = append([]runtime.EngineOption{runtime.WithClock(ports.FixedClock(testNow))}, opts...)
	return runtime.NewEngine(fake.NewRegistry(), opts...)
}

func TestEngine_BluthCompany(t *testing.T) {
	out, err := newEngine().RunSource(context.Background(), []byte(bluth), runtime.Request{Seed: 1})
	require.NoError(t, err)

	res := out.Result
	assert.Equal(t, domain.StatusCompleted, res.Status)
	require.Len(t, res.Records, 4)

	account := res.Records[0]
	assert.Equal(t, "Account", account.ObjectType)
	name, _ := account.Field("Name")
	assert.Equal(t, "The Bluth Company", name)

	contact := res.Records[1]
	ref, _ := contact.Field("AccountId")
	assert.Equal(t, account.Ref(), ref)

	for _, opp := range res.Records[2:] {
		acct, _ := opp.Field("AccountId")
		who, _ := opp.Field("ContactId")
		assert.Equal(t, domain.RecordRef{ObjectType: "Account", ID: 1}, acct)
		assert.Equal(t, domain.RecordRef{ObjectType: "Contact", ID: 1}, who)
	}
	assert.Equal(t, []string{"Account", "Contact", "Opportunity"}, res.ObjectTypes())
}

func TestEngine_ReversedReferenceFails(t *testing.T) {
	reversed := `
- object: Contact
  nickname: Michael
  just_once: true
  fields:
    AccountId:
      reference: bluth_co
- object: Account
  nickname: bluth_co
  just_once: true
  fields:
    Name: The Bluth Company
`
	out, err := newEngine().RunSource(context.Background(), []byte(reversed), runtime.Request{Seed: 1})

	var ure *domain.UnresolvedReferenceError
	require.ErrorAs(t, err, &ure)
	assert.Equal(t, "bluth_co", ure.Target)

	var re *domain.RecordError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "AccountId", re.Field)
	assert.Equal(t, "Michael", re.Nickname)

	assert.Equal(t, domain.StatusFailed, out.Result.Status)
	assert.False(t, out.Result.Completed())
	assert.Empty(t, out.Result.Records)
	assert.Nil(t, out.Session, "failed runs do not advance the session")
}

func TestEngine_JustOnceAcrossInvocations(t *testing.T) {
	engine := newEngine()
	ctx := context.Background()

	first, err := engine.RunSource(ctx, []byte(bluth), runtime.Request{Seed: 1, Session: domain.NewSession("s1")})
	require.NoError(t, err)
	require.NotNil(t, first.Session)
	assert.True(t, first.Session.Satisfied["bluth_co"])
	assert.True(t, first.Session.Satisfied["Michael"])
	assert.Equal(t, 1, first.Session.Runs)

	second, err := engine.RunSource(ctx, []byte(bluth), runtime.Request{Seed: 1, Session: first.Session})
	require.NoError(t, err)

	res := second.Result
	assert.Equal(t, 0, res.Count("Account"))
	assert.Equal(t, 0, res.Count("Contact"))
	assert.Equal(t, 2, res.Count("Opportunity"))
	assert.Equal(t, []string{"bluth_co", "Michael"}, res.Skipped)

	for _, opp := range res.Records {
		acct, _ := opp.Field("AccountId")
		assert.Equal(t, domain.RecordRef{ObjectType: "Account", ID: 1}, acct, "skipped blocks stay referenceable")
		assert.Greater(t, opp.ID, 2, "ids continue within the session")
	}
	assert.Equal(t, 4, second.Session.Sequences["Opportunity"])
	assert.Equal(t, int64(2), res.Seed, "each run of a session draws from seed + runs")

	// The first outcome's session is untouched by the second run.
	assert.Equal(t, 1, first.Session.Runs)
}

func TestEngine_CountGeneratorFixedPerActivation(t *testing.T) {
	recipe := `
- object: Account
  count:
    random_number:
      min: 3
      max: 5
  fields:
    Name: ${{ fake.company }}
`
	for seed := int64(1); seed <= 40; seed++ {
		var announced []int
		engine := newEngine(runtime.WithHooks(domain.LifecycleHooks{
			OnBlockStart: func(_ context.Context, e *domain.BlockEvent) { announced = append(announced, e.Count) },
		}))
		out, err := engine.RunSource(context.Background(), []byte(recipe), runtime.Request{Seed: seed})
		require.NoError(t, err)

		n := len(out.Result.Records)
		assert.GreaterOrEqual(t, n, 3)
		assert.LessOrEqual(t, n, 5)
		assert.Equal(t, []int{n}, announced)
	}
}

func TestEngine_Deterministic(t *testing.T) {
	recipe := `
- object: Account
  count: 5
  fields:
    Name: ${{ fake.company }}
    Employees:
      random_number:
        min: 1
        max: 500
    Founded:
      date_between:
        start_date: -10y
        end_date: today
    Industry:
      random_choice:
        Real Estate: 60%
        Banana Stands: 20%
        Prison Services: 60%
- object: Contact
  count: 10
  fields:
    FirstName:
      fake: first_name
    AccountId:
      random_reference: Account
`
	run := func() []byte {
		out, err := newEngine().RunSource(context.Background(), []byte(recipe), runtime.Request{Seed: 2003})
		require.NoError(t, err)
		data, err := json.Marshal(out.Result.Records)
		require.NoError(t, err)
		return data
	}
	assert.Equal(t, string(run()), string(run()))
}

func TestEngine_FieldsSeeOnlyEarlierFields(t *testing.T) {
	ok := `
- object: Contact
  fields:
    FirstName: George
    Email: ${{ FirstName }}@bluth.example
`
	out, err := newEngine().RunSource(context.Background(), []byte(ok), runtime.Request{})
	require.NoError(t, err)
	email, _ := out.Result.Records[0].Field("Email")
	assert.Equal(t, "George@bluth.example", email)

	forward := `
- object: Contact
  fields:
    Email: ${{ FirstName }}@bluth.example
    FirstName: George
`
	_, err = newEngine().RunSource(context.Background(), []byte(forward), runtime.Request{})
	var te *domain.TemplateError
	assert.ErrorAs(t, err, &te)
}

func TestEngine_FailureKeepsPartialRecords(t *testing.T) {
	recipe := `
- object: Account
  count: 2
- object: Contact
  fields:
    Phone:
      fake: fax_number
`
	out, err := newEngine().RunSource(context.Background(), []byte(recipe), runtime.Request{})
	var upe *domain.UnknownProviderError
	require.ErrorAs(t, err, &upe)
	assert.Equal(t, domain.StatusFailed, out.Result.Status)
	assert.Len(t, out.Result.Records, 2)
	assert.Equal(t, err, out.Result.Err)
}

func TestEngine_Options(t *testing.T) {
	recipe := `
- option: num_accounts
  default: 1
- object: Account
  count: ${{ num_accounts }}
`
	engine := newEngine()
	out, err := engine.RunSource(context.Background(), []byte(recipe), runtime.Request{})
	require.NoError(t, err)
	assert.Len(t, out.Result.Records, 1)

	out, err = engine.RunSource(context.Background(), []byte(recipe), runtime.Request{Options: map[string]any{"num_accounts": "3"}})
	require.NoError(t, err)
	assert.Len(t, out.Result.Records, 3)

	_, err = engine.RunSource(context.Background(), []byte(recipe), runtime.Request{Options: map[string]any{"num_contacts": 3}})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestEngine_WideNumberRange(t *testing.T) {
	recipe := `
- object: Ledger
  count: 50
  fields:
    Balance:
      random_number:
        min: -9000000000000000000
        max: 9000000000000000000
`
	out, err := newEngine().RunSource(context.Background(), []byte(recipe), runtime.Request{Seed: 4})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, out.Result.Status)
	require.Len(t, out.Result.Records, 50)
	for _, rec := range out.Result.Records {
		v, _ := rec.Field("Balance")
		n, ok := v.(int)
		require.True(t, ok, "Balance is %T", v)
		assert.GreaterOrEqual(t, n, -9000000000000000000)
		assert.LessOrEqual(t, n, 9000000000000000000)
	}
}

func TestEngine_ParseErrorFailsBeforePlanning(t *testing.T) {
	var finished *domain.RunEvent
	engine := newEngine(runtime.WithHooks(domain.LifecycleHooks{
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) { finished = e },
	}))

	out, err := engine.RunSource(context.Background(), []byte("object: Account"), runtime.Request{})
	var pe *domain.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, domain.StatusFailed, out.Result.Status)
	require.NotNil(t, finished)
	assert.Equal(t, domain.StatusFailed, finished.Status)
}

func TestEngine_FailurePhase(t *testing.T) {
	cases := map[string]struct {
		src   string
		phase string
	}{
		"malformed structure": {"object: Account", "idle"},
		"unknown generator": {`
- object: Account
  fields:
    Name:
      lorem_ipsum: 3
`, "planning"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			engine := newEngine(runtime.WithLogger(logging.NewJSON(&buf, slog.LevelDebug)))

			out, err := engine.RunSource(context.Background(), []byte(c.src), runtime.Request{})
			require.Error(t, err)
			assert.Equal(t, domain.StatusFailed, out.Result.Status)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
			assert.Equal(t, "run failed", entry["msg"])
			assert.Equal(t, c.phase, entry["phase"])
		})
	}
}

func TestEngine_CancellationBetweenUnits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	engine := newEngine(runtime.WithHooks(domain.LifecycleHooks{
		OnRecord: func(context.Context, *domain.RecordEvent) { cancel() },
	}))

	recipe := `
- object: Account
  count: 3
- object: Contact
`
	out, err := engine.RunSource(ctx, []byte(recipe), runtime.Request{})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, domain.StatusFailed, out.Result.Status)
	assert.Equal(t, 3, out.Result.Count("Account"), "a unit in progress runs to completion")
	assert.Zero(t, out.Result.Count("Contact"))
}

func TestEngine_Hooks(t *testing.T) {
	var events []domain.EventType
	record := func(t domain.EventType) { events = append(events, t) }
	engine := newEngine(runtime.WithHooks(domain.LifecycleHooks{
		OnRunStart:   func(_ context.Context, e *domain.RunEvent) { record(e.Type) },
		OnRunFinish:  func(_ context.Context, e *domain.RunEvent) { record(e.Type) },
		OnBlockStart: func(_ context.Context, e *domain.BlockEvent) { record(e.Type) },
		OnBlockSkip:  func(_ context.Context, e *domain.BlockEvent) { record(e.Type) },
		OnRecord:     func(_ context.Context, e *domain.RecordEvent) { record(e.Type) },
	}))

	recipe := `
- object: Account
  just_once: true
`
	first, err := engine.RunSource(context.Background(), []byte(recipe), runtime.Request{RunID: "r1"})
	require.NoError(t, err)
	_, err = engine.RunSource(context.Background(), []byte(recipe), runtime.Request{RunID: "r2", Session: first.Session})
	require.NoError(t, err)

	assert.Equal(t, []domain.EventType{
		domain.EventRunStart, domain.EventBlockStart, domain.EventRecord, domain.EventRunFinish,
		domain.EventRunStart, domain.EventBlockSkip, domain.EventRunFinish,
	}, events)
}

func TestEngine_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	engine := newEngine(runtime.WithTracer(tp.Tracer("test")))

	_, err := engine.RunSource(context.Background(), []byte(bluth), runtime.Request{Seed: 1})
	require.NoError(t, err)

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"seedbed.block", "seedbed.block", "seedbed.block", "seedbed.run"}, names)
}
