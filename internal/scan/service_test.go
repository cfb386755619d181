package scan

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"bid-advisor/internal/config"
	"bid-advisor/internal/db"
	"bid-advisor/internal/engine"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testVIN = "4T1B11HK5KU123456"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func intPtr(n int) *int { return &n }

type mocks struct {
	decoder  *MockDecoder
	pricing  *MockPriceEstimator
	ledger   *MockSalesLedger
	profiles *MockProfileStore
	store    *MockScanStore
}

func newTestService(t *testing.T) (*Service, mocks) {
	ctrl := gomock.NewController(t)
	m := mocks{
		decoder:  NewMockDecoder(ctrl),
		pricing:  NewMockPriceEstimator(ctrl),
		ledger:   NewMockSalesLedger(ctrl),
		profiles: NewMockProfileStore(ctrl),
		store:    NewMockScanStore(ctrl),
	}
	svc := NewService(m.decoder, m.pricing, m.ledger, m.profiles, m.store, Options{
		LookbackDays:     365,
		MaxRecords:       1000,
		BatchConcurrency: 2,
		MaxBatchSize:     5,
		DefaultProfile:   config.DefaultCostProfile(),
	})
	svc.now = func() time.Time { return testNow }
	return svc, m
}

func decodedCamry(vin string) engine.DecodedVehicle {
	return engine.DecodedVehicle{VIN: vin, Year: 2020, Make: "Toyota", Model: "Camry", TitleStatus: engine.TitleUnknown}
}

func cleanRequest(vin string) Request {
	return Request{
		VIN:           vin,
		Mileage:       intPtr(45000),
		TitleStatus:   "Clean",
		OwnerCount:    intPtr(1),
		AccidentCount: intPtr(0),
	}
}

func strongMarket() engine.MarketPriceEstimate {
	return engine.MarketPriceEstimate{AveragePrice: 25000, MinPrice: 22000, MaxPrice: 28000, Confidence: 85, DataSource: engine.SourceRealListings}
}

func recentSales() []engine.SalesRecord {
	var out []engine.SalesRecord
	for i := 0; i < 12; i++ {
		out = append(out, engine.SalesRecord{
			Year: 2020, Make: "Toyota", Model: "Camry", Mileage: intPtr(45000),
			SalePrice: 25000, AcquisitionCost: 20500, GrossProfit: 4500, MarginPercent: 18,
			DaysToSale: 20, SaleDate: testNow.AddDate(0, 0, -5*i),
		})
	}
	return out
}

func TestScan_HappyPathPersistsRecommendation(t *testing.T) {
	svc, m := newTestService(t)

	m.decoder.EXPECT().Decode(gomock.Any(), testVIN).Return(decodedCamry(testVIN), nil)
	m.pricing.EXPECT().Estimate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, v engine.DecodedVehicle) (engine.MarketPriceEstimate, bool, error) {
			require.NotNil(t, v.Mileage, "overrides must be applied before pricing")
			require.Equal(t, 45000, *v.Mileage)
			return strongMarket(), true, nil
		})
	m.ledger.EXPECT().RecentSales("dealer-a", testNow.AddDate(0, 0, -365), 1000).Return(recentSales(), nil)
	m.profiles.EXPECT().LoadCostProfile("dealer-a", config.DefaultCostProfile()).Return(config.DefaultCostProfile(), false, nil)

	var saved db.ScanRecord
	m.store.EXPECT().InsertScan(gomock.Any()).DoAndReturn(func(r db.ScanRecord) error {
		saved = r
		return nil
	})

	res, err := svc.Scan(context.Background(), "dealer-a", cleanRequest(" 4t1b11hk5ku123456 "))
	require.NoError(t, err)

	require.Equal(t, engine.TierBuy, res.Recommendation.Tier)
	require.GreaterOrEqual(t, res.Recommendation.ConfidenceScore, 80)
	require.Equal(t, engine.TitleClean, res.Vehicle.TitleStatus)
	require.Equal(t, 1, *res.Vehicle.OwnerCount)
	require.NotNil(t, res.Market)
	require.Equal(t, testNow, res.Recommendation.EvaluatedAt)

	require.NotEmpty(t, res.ID)
	require.Equal(t, res.ID, saved.ID)
	require.Equal(t, "dealer-a", saved.DealerID)
	require.Equal(t, testVIN, saved.VIN)
	require.Equal(t, engine.TierBuy, saved.Tier)
}

func TestScan_InvalidVINSkipsUpstream(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Scan(context.Background(), "dealer-a", Request{VIN: "1HGCM82633A00435Q"})
	require.ErrorIs(t, err, ErrInvalidVIN)
}

func TestScan_InvalidRequest(t *testing.T) {
	svc, _ := newTestService(t)

	for name, req := range map[string]Request{
		"missing vin":      {},
		"negative mileage": {VIN: testVIN, Mileage: intPtr(-1)},
		"bad title":        {VIN: testVIN, TitleStatus: "flood"},
		"negative owners":  {VIN: testVIN, OwnerCount: intPtr(-2)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Scan(context.Background(), "dealer-a", req)
			require.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestScan_DecoderFailures(t *testing.T) {
	tests := []struct {
		name    string
		decErr  error
		wantErr error
	}{
		{"unreachable", errors.New("dial tcp: connection refused"), ErrUpstream},
		{"unknown vehicle", fmt.Errorf("%w: manufacturer not registered", ErrUndecodable), ErrUndecodable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService(t)
			m.decoder.EXPECT().Decode(gomock.Any(), testVIN).Return(engine.DecodedVehicle{}, tt.decErr)

			_, err := svc.Scan(context.Background(), "dealer-a", Request{VIN: testVIN})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestScan_PricingUnreachable(t *testing.T) {
	svc, m := newTestService(t)
	m.decoder.EXPECT().Decode(gomock.Any(), testVIN).Return(decodedCamry(testVIN), nil)
	m.pricing.EXPECT().Estimate(gomock.Any(), gomock.Any()).Return(engine.MarketPriceEstimate{}, false, errors.New("pricing 502"))

	_, err := svc.Scan(context.Background(), "dealer-a", Request{VIN: testVIN})
	require.ErrorIs(t, err, ErrUpstream)
}

func TestScan_NoMarketEstimateStillRecommends(t *testing.T) {
	svc, m := newTestService(t)
	m.decoder.EXPECT().Decode(gomock.Any(), testVIN).Return(decodedCamry(testVIN), nil)
	m.pricing.EXPECT().Estimate(gomock.Any(), gomock.Any()).Return(engine.MarketPriceEstimate{}, false, nil)
	m.ledger.EXPECT().RecentSales(gomock.Any(), gomock.Any(), gomock.Any()).Return(recentSales(), nil)
	m.profiles.EXPECT().LoadCostProfile(gomock.Any(), gomock.Any()).Return(config.DefaultCostProfile(), false, nil)
	m.store.EXPECT().InsertScan(gomock.Any()).Return(nil)

	res, err := svc.Scan(context.Background(), "dealer-a", cleanRequest(testVIN))
	require.NoError(t, err)
	require.Nil(t, res.Market)
	require.True(t, res.Recommendation.MaxBidSuggestion.IsZero())
	require.NotEqual(t, engine.TierBuy, res.Recommendation.Tier)
}

func TestScan_RejectsBadStoredProfile(t *testing.T) {
	svc, m := newTestService(t)
	bad := config.DefaultCostProfile()
	bad.AuctionFeePercent = -1

	m.decoder.EXPECT().Decode(gomock.Any(), testVIN).Return(decodedCamry(testVIN), nil)
	m.pricing.EXPECT().Estimate(gomock.Any(), gomock.Any()).Return(strongMarket(), true, nil)
	m.ledger.EXPECT().RecentSales(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	m.profiles.EXPECT().LoadCostProfile(gomock.Any(), gomock.Any()).Return(bad, true, nil)

	_, err := svc.Scan(context.Background(), "dealer-a", Request{VIN: testVIN})
	require.ErrorIs(t, err, ErrInvalidProfile)
}

func TestScan_CancelledBeforeEvaluation(t *testing.T) {
	svc, m := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.decoder.EXPECT().Decode(gomock.Any(), testVIN).Return(decodedCamry(testVIN), nil)
	m.pricing.EXPECT().Estimate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, engine.DecodedVehicle) (engine.MarketPriceEstimate, bool, error) {
			cancel()
			return strongMarket(), true, nil
		})
	m.ledger.EXPECT().RecentSales(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	m.profiles.EXPECT().LoadCostProfile(gomock.Any(), gomock.Any()).Return(config.DefaultCostProfile(), false, nil)

	_, err := svc.Scan(ctx, "dealer-a", Request{VIN: testVIN})
	require.ErrorIs(t, err, context.Canceled)
}

func TestScan_SaveFailureKeepsResult(t *testing.T) {
	svc, m := newTestService(t)
	m.decoder.EXPECT().Decode(gomock.Any(), testVIN).Return(decodedCamry(testVIN), nil)
	m.pricing.EXPECT().Estimate(gomock.Any(), gomock.Any()).Return(strongMarket(), true, nil)
	m.ledger.EXPECT().RecentSales(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	m.profiles.EXPECT().LoadCostProfile(gomock.Any(), gomock.Any()).Return(config.DefaultCostProfile(), false, nil)
	m.store.EXPECT().InsertScan(gomock.Any()).Return(errors.New("disk full"))

	res, err := svc.Scan(context.Background(), "dealer-a", Request{VIN: testVIN})
	require.NoError(t, err)
	require.Empty(t, res.ID)
	// 0.4*85 + 0 + 0.2*90 - 10 (title and mileage unknown) = 42
	require.Equal(t, 42, res.Recommendation.ConfidenceScore)
}

func TestScanBatch_PreservesOrderAndIsolatesFailures(t *testing.T) {
	svc, m := newTestService(t)

	vins := []string{"4T1B11HK5KU000001", "BAD", "4T1B11HK5KU000003", "4T1B11HK5KU000004"}
	m.decoder.EXPECT().Decode(gomock.Any(), gomock.Any()).Times(3).DoAndReturn(
		func(_ context.Context, vin string) (engine.DecodedVehicle, error) {
			if vin == vins[3] {
				return engine.DecodedVehicle{}, errors.New("timeout")
			}
			return decodedCamry(vin), nil
		})
	m.pricing.EXPECT().Estimate(gomock.Any(), gomock.Any()).Times(2).Return(strongMarket(), true, nil)
	m.ledger.EXPECT().RecentSales(gomock.Any(), gomock.Any(), gomock.Any()).Times(2).Return(recentSales(), nil)
	m.profiles.EXPECT().LoadCostProfile(gomock.Any(), gomock.Any()).Times(2).Return(config.DefaultCostProfile(), false, nil)
	m.store.EXPECT().InsertScan(gomock.Any()).Times(2).Return(nil)

	reqs := make([]Request, len(vins))
	for i, vin := range vins {
		reqs[i] = cleanRequest(vin)
	}
	items, err := svc.ScanBatch(context.Background(), "dealer-a", reqs)
	require.NoError(t, err)
	require.Len(t, items, 4)

	for i, it := range items {
		require.Equal(t, vins[i], it.VIN)
	}
	require.NotNil(t, items[0].Result)
	require.Equal(t, vins[0], items[0].Result.Vehicle.VIN)
	require.ErrorIs(t, items[1].Kind, ErrInvalidVIN)
	require.Nil(t, items[1].Result)
	require.NotNil(t, items[2].Result)
	require.Equal(t, vins[2], items[2].Result.Vehicle.VIN)
	require.ErrorIs(t, items[3].Kind, ErrUpstream)
	require.NotEmpty(t, items[3].Error)
}

func TestScanBatch_TooLarge(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ScanBatch(context.Background(), "dealer-a", make([]Request, 6))
	require.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestScanBatch_CancelledContext(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ScanBatch(ctx, "dealer-a", []Request{cleanRequest(testVIN)})
	require.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate_OfflineWithProfileOverride(t *testing.T) {
	svc, m := newTestService(t)
	m.ledger.EXPECT().RecentSales("dealer-a", gomock.Any(), 1000).Return(recentSales(), nil)

	override := config.DefaultCostProfile()
	override.TargetMarginPercent = 10
	market := strongMarket()

	v := decodedCamry(testVIN)
	v.Mileage = intPtr(45000)
	v.TitleStatus = engine.TitleClean
	v.OwnerCount = intPtr(1)
	v.AccidentCount = intPtr(0)

	res, err := svc.Evaluate(context.Background(), "dealer-a", EvaluateRequest{Vehicle: v, Market: &market, Profile: &override})
	require.NoError(t, err)
	require.Empty(t, res.ID, "not saved unless asked")
	require.Equal(t, engine.TierBuy, res.Recommendation.Tier)
	// (25000*0.9 - 950) / 1.02 = 21127.45
	require.Equal(t, "21127.45", res.Recommendation.MaxBidSuggestion.StringFixed(2))
}

func TestEvaluate_SaveAndDefaultTitle(t *testing.T) {
	svc, m := newTestService(t)
	m.ledger.EXPECT().RecentSales(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	m.profiles.EXPECT().LoadCostProfile("dealer-a", gomock.Any()).Return(config.DefaultCostProfile(), true, nil)
	m.store.EXPECT().InsertScan(gomock.Any()).Return(nil)

	res, err := svc.Evaluate(context.Background(), "dealer-a", EvaluateRequest{
		Vehicle: engine.DecodedVehicle{Year: 2018, Make: "Honda", Model: "Civic"},
		Save:    true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)
	require.Equal(t, engine.TitleUnknown, res.Vehicle.TitleStatus)
	require.Equal(t, engine.TierPass, res.Recommendation.Tier)
}

func TestEvaluate_BrandedTitleIgnoresCase(t *testing.T) {
	for _, title := range []string{"Salvage", "SALVAGE", " rebuilt"} {
		t.Run(title, func(t *testing.T) {
			svc, m := newTestService(t)
			m.ledger.EXPECT().RecentSales("dealer-a", gomock.Any(), gomock.Any()).Return(recentSales(), nil)

			profile := config.DefaultCostProfile()
			market := strongMarket()
			market.Confidence = 100
			v := decodedCamry(testVIN)
			v.Mileage = intPtr(45000)
			v.TitleStatus = engine.TitleStatus(title)
			v.OwnerCount = intPtr(1)
			v.AccidentCount = intPtr(0)

			res, err := svc.Evaluate(context.Background(), "dealer-a", EvaluateRequest{Vehicle: v, Market: &market, Profile: &profile})
			require.NoError(t, err)
			require.True(t, res.Vehicle.TitleStatus.Branded(), "title = %q", res.Vehicle.TitleStatus)
			require.Equal(t, engine.TierPass, res.Recommendation.Tier)
		})
	}
}
