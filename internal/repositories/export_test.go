package repositories

var SearchCondition = searchCondition
