package deals

// DashboardDealsChartQuery requests the monthly deal value per stage.
const DashboardDealsChartQuery = `query DashboardDealsChart(
  $filter: DealStageFilter!
  $sorting: [DealStageSort!]
  $paging: OffsetPaging
) {
  dealStages(filter: $filter, sorting: $sorting, paging: $paging) {
    nodes {
      id
      title
      dealsAggregate {
        groupBy {
          closeDateMonth
          closeDateYear
        }
        sum {
          value
        }
      }
    }
    totalCount
  }
}`

// DashboardDealsChartOperation is the operation name of DashboardDealsChartQuery.
const DashboardDealsChartOperation = "DashboardDealsChart"
