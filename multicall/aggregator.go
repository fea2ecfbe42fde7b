package multicall

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/errgroup"

	"github.com/omniquote-labs/omniquote/rpc"
	"github.com/omniquote-labs/omniquote/types"
	"github.com/omniquote-labs/omniquote/util"
)

// Multicall3 tryAggregate(bool requireSuccess, (address,bytes)[] calls)
// returns (bool,bytes)[] with one entry per call in input order.
const multicall3ABI = `[{"inputs":[{"internalType":"bool","name":"requireSuccess","type":"bool"},{"components":[{"internalType":"address","name":"target","type":"address"},{"internalType":"bytes","name":"callData","type":"bytes"}],"internalType":"struct Multicall3.Call[]","name":"calls","type":"tuple[]"}],"name":"tryAggregate","outputs":[{"components":[{"internalType":"bool","name":"success","type":"bool"},{"internalType":"bytes","name":"returnData","type":"bytes"}],"internalType":"struct Multicall3.Result[]","name":"returnData","type":"tuple[]"}],"stateMutability":"payable","type":"function"}]`

var (
	multicallABI     abi.ABI
	multicallABIOnce sync.Once
)

func contractABI() abi.ABI {
	multicallABIOnce.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(multicall3ABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse multicall3 ABI: %s", err.Error()))
		}
		multicallABI = parsed
	})
	return multicallABI
}

// aggregateCall mirrors the Multicall3.Call tuple for ABI packing.
type aggregateCall struct {
	Target   common.Address
	CallData []byte
}

// aggregateResult mirrors the Multicall3.Result tuple for ABI unpacking.
type aggregateResult struct {
	Success    bool
	ReturnData []byte
}

// Call is one read inside an aggregated batch: either an encoded contract
// invocation or a native-coin balance query, which has no contract
// representation and is served out-of-band by eth_getBalance.
type Call struct {
	Target   common.Address
	CallData []byte
	holder   *common.Address
}

func NewCall(target common.Address, callData []byte) Call {
	return Call{Target: target, CallData: callData}
}

func NewBalanceCall(holder common.Address) Call {
	return Call{holder: &holder}
}

// IsBalanceCall reports whether the call is a native-coin balance query.
func (c Call) IsBalanceCall() bool {
	return c.holder != nil
}

// Result is the outcome of one aggregated call. ReturnData is raw ABI output;
// decoding it against the target method's schema is the caller's job.
type Result struct {
	Success    bool
	ReturnData []byte
}

// Aggregator folds many independent on-chain reads into a single Multicall3
// invocation, preserving caller input order and isolating per-call reverts.
type Aggregator struct {
	batcher  *rpc.Batcher
	contract common.Address
	logger   *slog.Logger
}

func NewAggregator(batcher *rpc.Batcher, contract common.Address, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		batcher:  batcher,
		contract: contract,
		logger:   logger.With("module", "multicall", "chain", batcher.Chain().String()),
	}
}

func (a *Aggregator) Chain() types.ChainID {
	return a.batcher.Chain()
}

// Read executes all calls and returns results positionally aligned with the
// input, whatever order the two underlying queries complete in. Contract
// calls travel in one tryAggregate(requireSuccess=false) so a reverting
// sub-call never reverts its siblings; balance calls go out as an independent
// eth_getBalance batch and are respliced at their original indices.
func (a *Aggregator) Read(ctx context.Context, calls []Call) ([]Result, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	var (
		contractCalls   []aggregateCall
		contractIndices []int
		balanceCalls    []rpc.BatchCall
		balanceIndices  []int
	)
	for i, call := range calls {
		if call.IsBalanceCall() {
			balanceCalls = append(balanceCalls, rpc.BatchCall{
				Method: "eth_getBalance",
				Params: []any{call.holder.Hex(), "latest"},
			})
			balanceIndices = append(balanceIndices, i)
			continue
		}
		contractCalls = append(contractCalls, aggregateCall{Target: call.Target, CallData: call.CallData})
		contractIndices = append(contractIndices, i)
	}

	results := make([]Result, len(calls))
	// The two queries are independent; only the splice below re-establishes
	// the caller-visible ordering.
	g, gctx := errgroup.WithContext(ctx)

	if len(contractCalls) > 0 {
		g.Go(func() error {
			aggregated, err := a.tryAggregate(gctx, contractCalls)
			if err != nil {
				return err
			}
			for i, res := range aggregated {
				results[contractIndices[i]] = res
			}
			return nil
		})
	}

	if len(balanceCalls) > 0 {
		g.Go(func() error {
			balances, err := a.batcher.Submit(gctx, balanceCalls)
			if err != nil {
				return err
			}
			for i, res := range balances {
				results[balanceIndices[i]] = balanceResult(res)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Aggregator) tryAggregate(ctx context.Context, calls []aggregateCall) ([]Result, error) {
	input, err := contractABI().Pack("tryAggregate", false, calls)
	if err != nil {
		return nil, types.NewInternalError("failed to pack tryAggregate", err)
	}

	raw, err := a.batcher.Call(ctx, "eth_call", map[string]string{
		"to":   a.contract.Hex(),
		"data": util.BytesToHexWithPrefix(input),
	}, "latest")
	if err != nil {
		return nil, err
	}

	output, err := util.HexToBytes(raw)
	if err != nil {
		return nil, types.NewInternalError("multicall returned invalid hex", err)
	}

	unpacked, err := contractABI().Unpack("tryAggregate", output)
	if err != nil {
		return nil, types.NewInternalError("failed to unpack tryAggregate", err)
	}
	aggregated := *abi.ConvertType(unpacked[0], new([]aggregateResult)).(*[]aggregateResult)
	if len(aggregated) != len(calls) {
		return nil, types.NewInternalError(
			fmt.Sprintf("multicall result length mismatch: %d != %d", len(aggregated), len(calls)), nil)
	}

	results := make([]Result, len(aggregated))
	for i, res := range aggregated {
		results[i] = Result{Success: res.Success, ReturnData: res.ReturnData}
	}
	return results, nil
}

// balanceResult converts an eth_getBalance answer into the uniform Result
// shape: a 32-byte big-endian value, as if balanceOf had been called.
func balanceResult(res rpc.BatchResult) Result {
	if res.Failed() {
		return Result{Success: false}
	}
	value, err := hexutil.DecodeBig(res.Result)
	if err != nil {
		return Result{Success: false}
	}
	return Result{Success: true, ReturnData: common.LeftPadBytes(value.Bytes(), 32)}
}
